package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	stdoutBlob = "stdout"
	stderrBlob = "stderr"
	resultFile = "result.json"
)

// FSStore stores entries under root as
//
//	<root>/<sanitized command>/<tree hex>/{stdout,stderr,result.json}
//
// Entries are staged in a temporary directory and renamed into place,
// so a crash mid-write leaves either no entry or a complete one.
type FSStore struct {
	root string
}

// NewFSStore creates a store rooted at root. The directory is created
// lazily on first Put.
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

// Root returns the cache root directory.
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) entryDir(key Key) string {
	return filepath.Join(s.root, key.CommandDir(), key.Tree.String())
}

// Get returns the entry for key, or ok=false when no complete entry
// exists. A present but unreadable result file is a storage error.
func (s *FSStore) Get(key Key) (*Entry, bool, error) {
	dir := s.entryDir(key)
	data, err := os.ReadFile(filepath.Join(dir, resultFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", dir, err)
	}
	if entry.Command != key.Command {
		// Distinct commands can sanitize to the same directory name; the
		// recorded command disambiguates. A mismatch is a miss.
		return nil, false, nil
	}
	entry.StdoutPath = filepath.Join(dir, stdoutBlob)
	entry.StderrPath = filepath.Join(dir, stderrBlob)
	return &entry, true, nil
}

// Put atomically persists a result for key.
func (s *FSStore) Put(key Key, result Result) (*Entry, error) {
	parent := filepath.Join(s.root, key.CommandDir())
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	staging, err := os.MkdirTemp(parent, ".staging-*")
	if err != nil {
		return nil, fmt.Errorf("create cache staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	entry := Entry{
		ExitCode:  result.ExitCode,
		Command:   key.Command,
		CreatedAt: time.Now().UTC(),
	}
	meta, err := json.MarshalIndent(&entry, "", "  ")
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{
		stdoutBlob: result.Stdout,
		stderrBlob: result.Stderr,
		resultFile: meta,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(staging, name), content, 0o644); err != nil {
			return nil, fmt.Errorf("write cache blob: %w", err)
		}
	}

	dir := s.entryDir(key)
	if err := os.Rename(staging, dir); err != nil {
		// The directory is occupied. A concurrent writer for this key
		// won the rename; their entry is complete, so serve it.
		if existing, ok, getErr := s.Get(key); getErr == nil && ok {
			return existing, nil
		}
		// Otherwise a command whose sanitized form collides with ours
		// owns the directory (or its entry is corrupt): evict it and
		// take the slot.
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("evict colliding cache entry: %w", err)
		}
		if err := os.Rename(staging, dir); err != nil {
			return nil, fmt.Errorf("commit cache entry: %w", err)
		}
	}

	entry.StdoutPath = filepath.Join(dir, stdoutBlob)
	entry.StderrPath = filepath.Join(dir, stderrBlob)
	return &entry, nil
}

// Clear removes every persisted entry unconditionally.
func (s *FSStore) Clear() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Compile-time interface conformance check.
var _ Store = (*FSStore)(nil)
