package counters

import (
	"context"
	"sync"
)

// MemoryStore keeps counter values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[ScopeKey]int64
	ids    map[string]CounterID
	closed bool
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[ScopeKey]int64),
		ids:    make(map[string]CounterID),
	}
}

// Seed records a counter registration and optional values. It exists for
// fixtures; counter mutation is not part of the Store contract.
func (s *MemoryStore) Seed(key string, id CounterID, values map[ScopeKey]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids[key] = id
	for k, v := range values {
		s.values[k] = v
	}
}

// GetCurrentValue implements Store.
func (s *MemoryStore) GetCurrentValue(ctx context.Context, key ScopeKey) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, false, unavailable("get", errClosed)
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// CounterIDs implements Store.
func (s *MemoryStore) CounterIDs(ctx context.Context) (map[string]CounterID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, unavailable("counter ids", errClosed)
	}
	out := make(map[string]CounterID, len(s.ids))
	for k, v := range s.ids {
		out[k] = v
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
