package assistant

import (
	"context"
	"sync"
)

// MemorySummaryStore keeps conversation summaries in process memory.
// Entries are overwritten, never merged.
type MemorySummaryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemorySummaryStore creates an empty store
func NewMemorySummaryStore() *MemorySummaryStore {
	return &MemorySummaryStore{entries: make(map[string]string)}
}

// Get returns the summary for key, or "" when none is stored
func (s *MemorySummaryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key], nil
}

// Set replaces the summary for key
func (s *MemorySummaryStore) Set(_ context.Context, key, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = summary
	return nil
}
