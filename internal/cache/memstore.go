package cache

import (
	"context"
	"sync"

	"github.com/vk/designgridgo/internal/model"
)

// MemStore is the in-memory Store used as a unit-test double and for
// cache-per-process runs. Entries are shared by pointer; they are immutable
// by contract.
type MemStore struct {
	mu      sync.RWMutex
	entries map[model.CacheKey]*Entry
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[model.CacheKey]*Entry)}
}

func (s *MemStore) Lookup(_ context.Context, key model.CacheKey) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

func (s *MemStore) Put(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.Key]; !exists {
		s.entries[entry.Key] = entry
	}
	return nil
}

func (s *MemStore) Close() error { return nil }

// Len reports the number of stored entries. Test helper.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
