package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/masmgr/rangetest/internal/revset"
)

// Status is the coordinator's lifecycle state. Idle and Concluded have
// no state file; InProgress and Parked are persisted so a crash or
// signal leaves a resumable checkpoint.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusParked     Status = "parked"
)

// ReasonKind distinguishes why a replay parked.
type ReasonKind string

const (
	ReasonExitCode ReasonKind = "exit-code"
	ReasonSignal   ReasonKind = "signal"
)

// Reason records why the replay parked at a commit.
type Reason struct {
	Kind ReasonKind `json:"kind"`
	Code int        `json:"code"`
}

// SavedCommit is the persisted form of a selected commit.
type SavedCommit struct {
	Hash    string `json:"hash"`
	Tree    string `json:"tree"`
	Subject string `json:"subject"`
	Skipped bool   `json:"skipped,omitempty"`
}

// State is the persisted replay marker. Its presence on disk is the
// advisory in-progress flag refusing concurrent runs.
type State struct {
	Command      string        `json:"command"`
	Commits      []SavedCommit `json:"commits"`
	Position     int           `json:"position"`
	OriginalHEAD string        `json:"original_head"`
	Status       Status        `json:"status"`
	Reason       *Reason       `json:"reason,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
}

// RevsetCommits converts the persisted commit list back to resolver
// records.
func (s *State) RevsetCommits() []revset.Commit {
	commits := make([]revset.Commit, 0, len(s.Commits))
	for _, sc := range s.Commits {
		commits = append(commits, revset.Commit{
			Hash:    plumbing.NewHash(sc.Hash),
			Tree:    plumbing.NewHash(sc.Tree),
			Subject: sc.Subject,
			Skipped: sc.Skipped,
		})
	}
	return commits
}

func saveCommits(commits []revset.Commit) []SavedCommit {
	saved := make([]SavedCommit, 0, len(commits))
	for _, c := range commits {
		saved = append(saved, SavedCommit{
			Hash:    c.Hash.String(),
			Tree:    c.Tree.String(),
			Subject: c.Subject,
			Skipped: c.Skipped,
		})
	}
	return saved
}

// StatePath returns the marker location under the git directory.
func StatePath(gitDir string) string {
	return filepath.Join(gitDir, "rangetest", "state.json")
}

// LoadState reads the persisted marker. ok is false when no replay is
// in progress.
func LoadState(gitDir string) (state *State, ok bool, err error) {
	data, err := os.ReadFile(StatePath(gitDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read replay state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, fmt.Errorf("corrupt replay state %s: %w", StatePath(gitDir), err)
	}
	return &st, true, nil
}

// SaveState persists the marker atomically (write-then-rename), so a
// crash never leaves a partially written state file.
func SaveState(gitDir string, st *State) error {
	path := StatePath(gitDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write replay state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit replay state: %w", err)
	}
	return nil
}

// RemoveState drops the marker, returning the coordinator to Idle.
func RemoveState(gitDir string) error {
	err := os.Remove(StatePath(gitDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove replay state: %w", err)
	}
	return nil
}
