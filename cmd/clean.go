package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/rangetest/internal/replay"
	"github.com/masmgr/rangetest/internal/report"
)

// CleanCmd returns the clean command, which deletes every cached entry
// unconditionally.
func CleanCmd() *cli.Command {
	return &cli.Command{
		Name:   "clean",
		Usage:  "Delete all cached test results",
		Flags:  []cli.Flag{repoFlag()},
		Action: cleanAction,
	}
}

func cleanAction(c *cli.Context) error {
	gitDir, err := replay.NewGitEngine(c.String("repo")).GitDir()
	if err != nil {
		return err
	}

	if err := cacheStore(gitDir).Clear(); err != nil {
		return err
	}

	report.NewReporter(c.App.Writer, 0).CleanConfirmation()
	return nil
}
