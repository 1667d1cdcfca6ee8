package storage

import (
	"context"
	"slices"
	"sync"
)

// Memory is a process-local KV used for tests and the "memory" backend.
type Memory struct {
	mu     sync.Mutex
	prefix string
	data   map[string][]byte
}

var _ KV = (*Memory)(nil)

func NewMemory(prefix string) *Memory {
	return &Memory{prefix: prefix, data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[prefixed(m.prefix, key)]
	return slices.Clone(v), ok, nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[prefixed(m.prefix, key)] = slices.Clone(value)
	return nil
}

func (m *Memory) Close() error { return nil }
