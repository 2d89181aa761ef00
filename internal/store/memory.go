package store

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store for tests. FailWrites simulates a
// full or unavailable backend.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	writeErr error
	writes   int
	closed   bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key, or fails with the error configured
// by FailWrites.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[key] = append([]byte{}, value...)
	m.writes++
	return nil
}

// FailWrites makes every subsequent Set return err. Pass nil to
// restore normal behaviour.
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Writes returns the number of successful Set calls.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
