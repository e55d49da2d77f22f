package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store using an in-process map.
// This provider is ideal for development and testing. It provides fast
// access but data is lost on restart. An optional byte quota models the
// limited persistent store of a browser: Set fails with ErrQuotaExceeded
// once keys plus values would exceed it.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	used   int64
	quota  int64
	closed bool
}

// NewMemoryStore creates a new memory-based store
func NewMemoryStore(config Config) (*MemoryStore, error) {
	return &MemoryStore{
		data:  make(map[string]string),
		quota: config.QuotaBytes,
	}, nil
}

func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	used := m.used + entrySize(key, value)
	if old, ok := m.data[key]; ok {
		used -= entrySize(key, old)
	}
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}

	m.data[key] = value
	m.used = used
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if old, ok := m.data[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Used returns the number of bytes currently held.
func (m *MemoryStore) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

func (m *MemoryStore) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close drops all data. Memory storage has no external resources.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.used = 0
	m.closed = true
	return nil
}
