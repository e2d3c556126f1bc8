package replay

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Engine materializes commit trees in the working directory, one at a
// time. The git engine snapshots commits with detached checkouts; any
// implementation providing sequential, resumable, single-tree-at-a-time
// materialization satisfies the coordinator.
type Engine interface {
	// GitDir returns the repository's git directory.
	GitDir() (string, error)

	// RebaseInProgress reports whether a native git rebase is active.
	RebaseInProgress() (bool, error)

	// IsDirty reports whether the working tree or index has
	// uncommitted changes.
	IsDirty() (bool, error)

	// CurrentHEAD returns the checked-out branch name, or the commit
	// hash when HEAD is detached.
	CurrentHEAD() (string, error)

	// Materialize checks out the commit's tree into the working
	// directory.
	Materialize(hash string) error

	// Restore returns the working directory to the given branch or
	// commit.
	Restore(head string) error
}

// GitEngine drives the git CLI for the repository at RepoPath.
type GitEngine struct {
	RepoPath string
}

// NewGitEngine creates an engine for the repository at repoPath.
func NewGitEngine(repoPath string) *GitEngine {
	return &GitEngine{RepoPath: repoPath}
}

func (e *GitEngine) git(args ...string) (string, error) {
	args = append([]string{"-C", e.RepoPath}, args...)
	out, err := exec.Command("git", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// GitDir returns the repository's git directory.
func (e *GitEngine) GitDir() (string, error) {
	return e.git("rev-parse", "--absolute-git-dir")
}

// RebaseInProgress checks for git's own rebase markers, so a run never
// starts in the middle of someone else's rebase.
func (e *GitEngine) RebaseInProgress() (bool, error) {
	gitDir, err := e.GitDir()
	if err != nil {
		return false, err
	}
	for _, marker := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(gitDir, marker)); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// IsDirty reports uncommitted changes in the working tree or index.
func (e *GitEngine) IsDirty() (bool, error) {
	for _, args := range [][]string{
		{"diff", "--quiet"},
		{"diff", "--cached", "--quiet"},
	} {
		cmd := exec.Command("git", append([]string{"-C", e.RepoPath}, args...)...)
		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
				return true, nil
			}
			return false, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
		}
	}
	return false, nil
}

// CurrentHEAD returns the checked-out branch name, or the commit hash
// when HEAD is detached.
func (e *GitEngine) CurrentHEAD() (string, error) {
	if branch, err := e.git("symbolic-ref", "-q", "--short", "HEAD"); err == nil && branch != "" {
		return branch, nil
	}
	return e.git("rev-parse", "HEAD")
}

// Materialize checks out the commit's tree with a detached HEAD.
func (e *GitEngine) Materialize(hash string) error {
	_, err := e.git("checkout", "-q", "--detach", hash)
	return err
}

// Restore returns the working directory to the original branch or
// commit.
func (e *GitEngine) Restore(head string) error {
	_, err := e.git("checkout", "-q", head)
	return err
}

// Compile-time interface conformance check.
var _ Engine = (*GitEngine)(nil)
