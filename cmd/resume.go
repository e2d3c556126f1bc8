package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/rangetest/internal/replay"
	"github.com/masmgr/rangetest/internal/report"
	"github.com/masmgr/rangetest/internal/revset"
	"github.com/masmgr/rangetest/internal/testrun"
)

// ContinueCmd returns the continue command, which resumes a parked
// replay at the parked commit. Commits already cached replay instantly;
// a commit interrupted by a signal re-executes.
func ContinueCmd() *cli.Command {
	return &cli.Command{
		Name:  "continue",
		Usage: "Resume a parked test run",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "show captured output (repeat for full, uncollapsed output)",
			},
			repoFlag(),
		},
		Action: continueAction,
	}
}

// AbortCmd returns the abort command, which restores the original HEAD
// and discards the parked replay.
func AbortCmd() *cli.Command {
	return &cli.Command{
		Name:   "abort",
		Usage:  "Abort a parked test run and restore the original HEAD",
		Flags:  []cli.Flag{repoFlag()},
		Action: abortAction,
	}
}

func continueAction(c *cli.Context) error {
	repoPath := c.String("repo")

	coord, err := replay.NewCoordinator(replay.NewGitEngine(repoPath))
	if err != nil {
		return err
	}

	st, pending, err := coord.Pending()
	if err != nil {
		return err
	}
	if !pending {
		fmt.Fprintln(c.App.Writer, "No test run is in progress.")
		return cli.Exit("", 1)
	}

	executor := testrun.NewExecutor(repoPath, cacheStore(coord.GitDir()))
	hook := func(commit revset.Commit) (testrun.Outcome, error) {
		return executor.Run(c.Context, commit, st.Command)
	}

	results, runErr := coord.Resume(hook)
	if runErr != nil {
		var signalErr *replay.SignalError
		if !errors.As(runErr, &signalErr) {
			return runErr
		}
	}

	remaining := len(st.Commits) - st.Position
	reporter := report.NewReporter(c.App.Writer, c.Count("verbose"))
	reporter.Header(st.Command, remaining)
	for _, res := range results {
		if err := reporter.Result(res); err != nil {
			return err
		}
	}

	var signalErr *replay.SignalError
	if errors.As(runErr, &signalErr) {
		return cli.Exit("", signalErr.ExitCode())
	}

	reporter.Summary(results)

	if _, failed, _ := testrun.Counts(results); failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func abortAction(c *cli.Context) error {
	coord, err := replay.NewCoordinator(replay.NewGitEngine(c.String("repo")))
	if err != nil {
		return err
	}

	if err := coord.Abort(); err != nil {
		var noOp *replay.NoOperationError
		if errors.As(err, &noOp) {
			fmt.Fprintln(c.App.Writer, "No test run is in progress.")
			return cli.Exit("", 1)
		}
		return err
	}

	fmt.Fprintln(c.App.Writer, "Aborted the test run.")
	return nil
}
