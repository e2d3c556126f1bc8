package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/rangetest/config"
	"github.com/masmgr/rangetest/internal/cache"
	"github.com/masmgr/rangetest/internal/command"
	"github.com/masmgr/rangetest/internal/replay"
	"github.com/masmgr/rangetest/internal/revset"
)

// Common flags shared by run and show.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "exec",
			Aliases: []string{"x"},
			Usage:   "test command to run",
		},
		&cli.StringFlag{
			Name:    "command",
			Aliases: []string{"c"},
			Usage:   "name of a configured command alias to run",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "show captured output (repeat for full, uncollapsed output)",
		},
		repoFlag(),
	}
}

func repoFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "repo",
		Aliases: []string{"r"},
		Usage:   "path to Git repository",
		Value:   ".",
	}
}

// resolveCommand applies the explicit > alias > default precedence and
// converts configuration errors into exit-1 results with their
// remediation text printed.
func resolveCommand(c *cli.Context, cfg config.Provider) (command.TestCommand, error) {
	resolved, err := command.Resolve(c.String("exec"), c.String("command"), cfg)
	if err != nil {
		var cfgErr *command.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(c.App.Writer, cfgErr.Message)
			return command.TestCommand{}, cli.Exit("", 1)
		}
		return command.TestCommand{}, err
	}
	return resolved, nil
}

// resolveCommits maps the positional revset argument to the ordered
// commit list.
func resolveCommits(c *cli.Context) ([]revset.Commit, error) {
	resolver, err := revset.NewResolver(c.String("repo"), revset.Options{
		Include: c.StringSlice("include"),
		Exclude: c.StringSlice("exclude"),
	})
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(c.Args().First())
}

// cacheStore opens the persisted cache under the repository's git
// directory.
func cacheStore(gitDir string) *cache.FSStore {
	return cache.NewFSStore(filepath.Join(gitDir, "rangetest", "cache"))
}

// guidanceFor prints the fixed user guidance for replay refusals and
// maps them to exit code 1. Other errors pass through unchanged.
func guidanceFor(c *cli.Context, err error) error {
	var conflict *replay.ConflictingOperationError
	if errors.As(err, &conflict) {
		fmt.Fprintln(c.App.Writer, conflict.Guidance())
		return cli.Exit("", 1)
	}
	var dirty *replay.DirtyWorktreeError
	if errors.As(err, &dirty) {
		fmt.Fprintln(c.App.Writer, dirty.Guidance())
		return cli.Exit("", 1)
	}
	return err
}
