// Package testrun executes the test command against materialized
// commit trees, consulting and updating the outcome cache.
package testrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/masmgr/rangetest/internal/cache"
	"github.com/masmgr/rangetest/internal/revset"
)

// Executor runs the test command for one commit at a time. The commit's
// tree must already be materialized in Dir by the replay coordinator.
type Executor struct {
	// Dir is the working directory commands run in.
	Dir string

	// Cache stores outcomes keyed by (command, tree fingerprint).
	Cache cache.Store
}

// NewExecutor constructs an Executor over the given working directory
// and cache.
func NewExecutor(dir string, store cache.Store) *Executor {
	return &Executor{Dir: dir, Cache: store}
}

// Run tests a single commit. A cache hit is returned without executing
// anything, failures included: a commit known to fail is reported failed
// again at zero execution cost. Signal termination is never cached, so
// a later run re-executes instead of replaying a spurious failure.
func (e *Executor) Run(ctx context.Context, commit revset.Commit, command string) (Outcome, error) {
	key := cache.Key{Command: command, Tree: commit.Tree}

	if entry, ok, err := e.Cache.Get(key); err != nil {
		return Outcome{}, fmt.Errorf("cache lookup for %s: %w", commit.ShortHash(), err)
	} else if ok {
		kind := PassedCached
		if entry.ExitCode != 0 {
			kind = FailedCached
		}
		return Outcome{Kind: kind, ExitCode: entry.ExitCode, Entry: entry}, nil
	}

	exitCode, signal, stdout, stderr, err := e.execute(ctx, command)
	if err != nil {
		return Outcome{}, err
	}

	if signal != 0 {
		return Outcome{Kind: SignalTerminated, Signal: signal}, nil
	}

	entry, err := e.Cache.Put(key, cache.Result{
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("cache write for %s: %w", commit.ShortHash(), err)
	}

	kind := Passed
	if exitCode != 0 {
		kind = Failed
	}
	return Outcome{Kind: kind, ExitCode: exitCode, Entry: entry}, nil
}

// execute runs command through the shell as a blocking foreground
// child, capturing stdout and stderr separately.
func (e *Executor) execute(ctx context.Context, command string) (exitCode, signal int, stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = e.Dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return 0, 0, nil, nil, fmt.Errorf("run test command: %w", runErr)
		}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 0, int(ws.Signal()), nil, nil, nil
		}
		return exitErr.ExitCode(), 0, outBuf.Bytes(), errBuf.Bytes(), nil
	}

	return 0, 0, outBuf.Bytes(), errBuf.Bytes(), nil
}
