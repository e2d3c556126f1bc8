// Package replay drives sequential tree materialization over an
// ordered commit list, with a persisted, resumable state machine:
//
//	Idle → InProgress → {ParkedAtCommit ⇄ InProgress} → Concluded
//
// A nonzero test exit parks the replay at the failing commit and
// immediately resumes with the next one; a signal termination leaves
// the replay parked on disk until the user explicitly continues or
// aborts. Conclusion always restores the original HEAD: the engine's
// sole purpose is to materialize trees in sequence, not to retain
// rewritten history.
package replay

import (
	"fmt"
	"time"

	"github.com/masmgr/rangetest/internal/revset"
	"github.com/masmgr/rangetest/internal/testrun"
)

// Hook is the per-commit callback. It receives one materialized tree
// per invocation and yields an outcome classification. The coordinator
// blocks until it returns.
type Hook func(commit revset.Commit) (testrun.Outcome, error)

// Coordinator owns the replay lifecycle for one repository.
type Coordinator struct {
	engine Engine
	gitDir string
}

// NewCoordinator creates a coordinator over the given engine.
func NewCoordinator(engine Engine) (*Coordinator, error) {
	gitDir, err := engine.GitDir()
	if err != nil {
		return nil, err
	}
	return &Coordinator{engine: engine, gitDir: gitDir}, nil
}

// GitDir returns the resolved git directory.
func (c *Coordinator) GitDir() string {
	return c.gitDir
}

// Pending returns the persisted state of a parked or interrupted
// replay, if any.
func (c *Coordinator) Pending() (*State, bool, error) {
	return LoadState(c.gitDir)
}

// Run replays the commit list from the beginning, invoking hook once
// per non-skipped commit. The returned results are in replay order and
// cover every commit processed before any error.
func (c *Coordinator) Run(commits []revset.Commit, command string, hook Hook) ([]testrun.CommitResult, error) {
	if _, exists, err := LoadState(c.gitDir); err != nil {
		return nil, err
	} else if exists {
		return nil, &ConflictingOperationError{}
	}
	if rebasing, err := c.engine.RebaseInProgress(); err != nil {
		return nil, err
	} else if rebasing {
		return nil, &ConflictingOperationError{}
	}

	if dirty, err := c.engine.IsDirty(); err != nil {
		return nil, err
	} else if dirty {
		return nil, &DirtyWorktreeError{}
	}

	head, err := c.engine.CurrentHEAD()
	if err != nil {
		return nil, fmt.Errorf("snapshot HEAD: %w", err)
	}

	st := &State{
		Command:      command,
		Commits:      saveCommits(commits),
		OriginalHEAD: head,
		Status:       StatusInProgress,
		StartedAt:    time.Now().UTC(),
	}
	if err := SaveState(c.gitDir, st); err != nil {
		return nil, err
	}

	return c.replay(st, 0, hook)
}

// Resume continues a parked replay at the parked commit. Commits whose
// outcomes were already cached replay instantly; a commit interrupted
// by a signal re-executes.
func (c *Coordinator) Resume(hook Hook) ([]testrun.CommitResult, error) {
	st, exists, err := LoadState(c.gitDir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &NoOperationError{}
	}

	st.Status = StatusInProgress
	st.Reason = nil
	if err := SaveState(c.gitDir, st); err != nil {
		return nil, err
	}

	return c.replay(st, st.Position, hook)
}

// Abort restores the original HEAD and drops the persisted state
// without running anything further.
func (c *Coordinator) Abort() error {
	st, exists, err := LoadState(c.gitDir)
	if err != nil {
		return err
	}
	if !exists {
		return &NoOperationError{}
	}
	if err := c.engine.Restore(st.OriginalHEAD); err != nil {
		return err
	}
	return RemoveState(c.gitDir)
}

func (c *Coordinator) replay(st *State, start int, hook Hook) ([]testrun.CommitResult, error) {
	commits := st.RevsetCommits()
	results := make([]testrun.CommitResult, 0, len(commits))

	for i := start; i < len(commits); i++ {
		commit := commits[i]

		st.Position = i
		if err := SaveState(c.gitDir, st); err != nil {
			return results, c.failRun(st, err)
		}

		if commit.Skipped {
			results = append(results, testrun.CommitResult{
				Commit:  commit,
				Outcome: testrun.Outcome{Kind: testrun.Skipped},
			})
			continue
		}

		if err := c.engine.Materialize(commit.Hash.String()); err != nil {
			return results, c.failRun(st, fmt.Errorf("materialize %s: %w", commit.ShortHash(), err))
		}

		outcome, err := hook(commit)
		if err != nil {
			return results, c.failRun(st, err)
		}

		if outcome.Kind == testrun.SignalTerminated {
			// Park durably. The state file stays on disk, refusing new
			// runs until the user continues or aborts.
			st.Status = StatusParked
			st.Reason = &Reason{Kind: ReasonSignal, Code: outcome.Signal}
			if err := SaveState(c.gitDir, st); err != nil {
				// An unpersistable park cannot be resumed; conclude
				// instead of leaving HEAD detached with stale state.
				return results, c.failRun(st, err)
			}
			return results, &SignalError{Signal: outcome.Signal}
		}

		results = append(results, testrun.CommitResult{Commit: commit, Outcome: outcome})

		if outcome.Failed() {
			// Park at the failing commit with its recorded outcome,
			// then resume with the next commit.
			st.Status = StatusParked
			st.Reason = &Reason{Kind: ReasonExitCode, Code: outcome.ExitCode}
			if err := SaveState(c.gitDir, st); err != nil {
				return results, c.failRun(st, err)
			}
			st.Status = StatusInProgress
			st.Reason = nil
		}
	}

	// Conclude via abort: restore the original HEAD and return to Idle.
	if err := c.engine.Restore(st.OriginalHEAD); err != nil {
		return results, err
	}
	if err := RemoveState(c.gitDir); err != nil {
		return results, err
	}
	return results, nil
}

// failRun concludes a replay that hit an internal error (not a test
// failure): restore HEAD, drop state, surface the error.
func (c *Coordinator) failRun(st *State, cause error) error {
	if err := c.engine.Restore(st.OriginalHEAD); err != nil {
		return fmt.Errorf("%w (additionally, restoring HEAD failed: %v)", cause, err)
	}
	if err := RemoveState(c.gitDir); err != nil {
		return fmt.Errorf("%w (additionally: %v)", cause, err)
	}
	return cause
}
