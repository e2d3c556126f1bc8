package cmd

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/rangetest/config"
	"github.com/masmgr/rangetest/internal/replay"
	"github.com/masmgr/rangetest/internal/report"
	"github.com/masmgr/rangetest/internal/revset"
	"github.com/masmgr/rangetest/internal/testrun"
)

// RunCmd returns the run command.
func RunCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "only test commits changing paths matching this glob (can be repeated)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "skip commits changing only paths matching this glob (can be repeated)",
		},
	)

	return &cli.Command{
		Name:      "run",
		Usage:     "Run the test command on each commit in the range",
		ArgsUsage: "[revset]",
		Flags:     flags,
		Action:    runAction,
	}
}

func runAction(c *cli.Context) error {
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

	coord, err := replay.NewCoordinator(replay.NewGitEngine(repoPath))
	if err != nil {
		return err
	}

	executor := testrun.NewExecutor(repoPath, cacheStore(coord.GitDir()))
	hook := func(commit revset.Commit) (testrun.Outcome, error) {
		return executor.Run(c.Context, commit, resolved.Command)
	}

	results, runErr := coord.Run(commits, resolved.Command, hook)
	if runErr != nil {
		var signalErr *replay.SignalError
		if !errors.As(runErr, &signalErr) {
			return guidanceFor(c, runErr)
		}
	}

	reporter := report.NewReporter(c.App.Writer, c.Count("verbose"))
	reporter.Header(resolved.Command, len(commits))
	for _, res := range results {
		if err := reporter.Result(res); err != nil {
			return err
		}
	}

	var signalErr *replay.SignalError
	if errors.As(runErr, &signalErr) {
		// Parked at the signal-terminated commit; the replay stays on
		// disk for an explicit continue or abort.
		return cli.Exit("", signalErr.ExitCode())
	}

	reporter.Summary(results)

	if _, failed, _ := testrun.Counts(results); failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}
