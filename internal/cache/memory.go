package cache

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Key]*memoryEntry
}

type memoryEntry struct {
	entry  Entry
	stdout []byte
	stderr []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]*memoryEntry)}
}

// Get returns the entry for key, or ok=false on a miss.
func (s *MemoryStore) Get(key Key) (*Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	entry := me.entry
	return &entry, true, nil
}

// Put persists a result for key.
func (s *MemoryStore) Put(key Key, result Result) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me := &memoryEntry{
		entry: Entry{
			ExitCode:  result.ExitCode,
			Command:   key.Command,
			CreatedAt: time.Now().UTC(),
		},
		stdout: append([]byte(nil), result.Stdout...),
		stderr: append([]byte(nil), result.Stderr...),
	}
	s.entries[key] = me
	entry := me.entry
	return &entry, nil
}

// Clear removes every entry.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Key]*memoryEntry)
	return nil
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Compile-time interface conformance check.
var _ Store = (*MemoryStore)(nil)
