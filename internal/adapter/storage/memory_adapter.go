package storage

import (
	"context"
	"sync"
)

// MemoryAdapter is a process-local SnapshotStore.
type MemoryAdapter struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{values: make(map[string]string)}
}

func (m *MemoryAdapter) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryAdapter) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryAdapter) Ping(context.Context) error {
	return nil
}
