// Package cache is a crash-tolerant, content-addressed store of test
// outcomes. Keys are derived from the test command and a commit's tree
// fingerprint, never from commit identity, so replaying history never
// invalidates an entry.
package cache

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// Key identifies a cache entry. Two commits with identical tree content
// under the same command share a Key, even across unrelated history.
type Key struct {
	Command string
	Tree    plumbing.Hash
}

// CommandDir returns the filesystem-safe directory name for the
// command component of the key.
func (k Key) CommandDir() string {
	return SanitizeCommand(k.Command)
}

// Result is the product of one command execution, to be persisted.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Entry is a persisted outcome. Stdout/StderrPath reference the capture
// blobs, which outlive the execution that produced them.
type Entry struct {
	ExitCode   int       `json:"exit_code"`
	Command    string    `json:"command"`
	CreatedAt  time.Time `json:"created_at"`
	StdoutPath string    `json:"-"`
	StderrPath string    `json:"-"`
}

// Store persists and retrieves test outcomes. Entries never expire;
// only Clear removes them.
type Store interface {
	// Get returns the entry for key, or ok=false on a miss.
	Get(key Key) (entry *Entry, ok bool, err error)

	// Put atomically persists a result for key. Readers never observe
	// a partially written entry.
	Put(key Key, result Result) (*Entry, error)

	// Clear removes every persisted entry unconditionally.
	Clear() error
}

// SanitizeCommand maps an arbitrary command string to a filesystem-safe
// directory name. Every byte outside [A-Za-z0-9._-] becomes '_'.
func SanitizeCommand(command string) string {
	if command == "" {
		return "_"
	}
	out := make([]byte, len(command))
	for i := 0; i < len(command); i++ {
		c := command[i]
		switch {
		case c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9',
			c == '.', c == '_', c == '-':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	s := string(out)
	// "." and ".." are valid sanitized strings but not valid directory
	// names.
	if s == "." || s == ".." {
		return "_" + s
	}
	return s
}
