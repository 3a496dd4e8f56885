package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Medium. A positive Quota caps the total number of
// bytes held across all keys.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// NewMemoryWithQuota creates a Memory that rejects writes pushing the total
// stored size above quota bytes.
func NewMemoryWithQuota(quota int) *Memory {
	return &Memory{values: make(map[string]string), quota: quota}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quota > 0 {
		used := 0
		for k, v := range m.values {
			if k != key {
				used += len(v)
			}
		}
		if used+len(value) > m.quota {
			return ErrQuotaExceeded
		}
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

// Keys returns the number of keys currently held.
func (m *Memory) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
