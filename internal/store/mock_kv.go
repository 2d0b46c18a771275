// ABOUTME: Mock KV implementation for testing and ephemeral mode
// ABOUTME: Allows tests and ephemeral runs to work without SQLite

package store

import (
	"context"
	"sync"
)

// MockKV is an in-memory KV implementation.
type MockKV struct {
	mu     sync.RWMutex
	values map[string][]byte

	// FailPuts makes every Put return the given error, for exercising the
	// best-effort persistence path.
	FailPuts error
}

// NewMockKV creates a new MockKV.
func NewMockKV() *MockKV {
	return &MockKV{values: make(map[string][]byte)}
}

// Get returns the value stored under key, or ErrNotFound.
func (m *MockKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy to avoid external modification
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores value under key.
func (m *MockKV) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPuts != nil {
		return m.FailPuts
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	return nil
}

// Delete removes key.
func (m *MockKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Close is a no-op.
func (m *MockKV) Close() error { return nil }
