package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is an in-process Store, used for tests and --store=memory.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
	puts int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Get(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil, ErrNotFound
	}
	return slices.Clone(m.blob), nil
}

func (m *MemoryStore) Put(ctx context.Context, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = slices.Clone(blob)
	m.puts++
	return nil
}

// Puts is the number of successful writes.
func (m *MemoryStore) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func (m *MemoryStore) Close() error { return nil }
