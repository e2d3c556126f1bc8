// Package cmd wires the CLI surface.
package cmd

import (
	"github.com/urfave/cli/v2"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                   "rangetest",
		Usage:                  "Run a test command across a range of Git commits",
		Version:                "1.0.0",
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			RunCmd(),
			ShowCmd(),
			CleanCmd(),
			ContinueCmd(),
			AbortCmd(),
		},
	}
}
