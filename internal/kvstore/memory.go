package kvstore

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Tests use it as a stand-in for a real
// backend; the failure knobs simulate connect and transaction errors.
type Memory struct {
	// OpenErr, GetErr and PutErr, when set, fail the corresponding
	// operation.
	OpenErr error
	GetErr  error
	PutErr  error

	// OpenDelay simulates connect latency before Open resolves.
	OpenDelay time.Duration

	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Open waits OpenDelay (honoring ctx) and returns OpenErr.
func (m *Memory) Open(ctx context.Context) error {
	if m.OpenDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.OpenDelay):
		}
	}
	return m.OpenErr
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores a copy of value under key.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()
	return nil
}

// Type returns "memory".
func (m *Memory) Type() string { return "memory" }

// Close is a no-op for memory stores.
func (m *Memory) Close() error { return nil }

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
