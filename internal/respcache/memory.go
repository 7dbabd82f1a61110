package respcache

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	store      map[string][]byte
	maxEntries int
}

// NewMemory creates a Memory store. maxEntries <= 0 means unbounded.
func NewMemory(maxEntries int) *Memory {
	return &Memory{
		store:      make(map[string][]byte),
		maxEntries: maxEntries,
	}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	v, ok := m.store[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements Store. When full, an arbitrary entry is evicted.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && m.maxEntries > 0 && len(m.store) >= m.maxEntries {
		for k := range m.store {
			delete(m.store, k)
			break
		}
	}
	m.store[key] = append([]byte(nil), value...)
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}
