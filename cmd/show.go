package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/rangetest/config"
	"github.com/masmgr/rangetest/internal/cache"
	"github.com/masmgr/rangetest/internal/replay"
	"github.com/masmgr/rangetest/internal/report"
)

// ShowCmd returns the show command, which inspects cached outcomes
// without executing anything. Cache misses are informational, never
// errors.
func ShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show cached test results for each commit in the range",
		ArgsUsage: "[revset]",
		Flags:     commonFlags(),
		Action:    showAction,
	}
}

func showAction(c *cli.Context) error {
	repoPath := c.String("repo")
	cfg := config.NewGitProvider(repoPath)

	resolved, err := resolveCommand(c, cfg)
	if err != nil {
		return err
	}

	commits, err := resolveCommits(c)
	if err != nil {
		return err
	}

	gitDir, err := replay.NewGitEngine(repoPath).GitDir()
	if err != nil {
		return err
	}
	store := cacheStore(gitDir)

	reporter := report.NewReporter(c.App.Writer, c.Count("verbose"))
	for _, commit := range commits {
		entry, ok, err := store.Get(cache.Key{Command: resolved.Command, Tree: commit.Tree})
		if err != nil {
			return err
		}
		if !ok {
			reporter.NoCachedData(commit)
			continue
		}
		if err := reporter.CachedEntry(commit, entry); err != nil {
			return err
		}
	}

	if cfg.GetBool(config.HintShowVerboseKey, true) {
		reporter.ShowHints()
	}
	return nil
}
