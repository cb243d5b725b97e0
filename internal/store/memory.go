package store

import (
	"context"
	"sync"
)

// Memory is a non-persistent backend, only suitable for development and tests
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// FailWrites makes Save fail, to exercise storage outages
	FailWrites bool
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrUnavailable
	}
	v := make([]byte, len(data))
	copy(v, data)
	m.docs[key] = v
	return nil
}

func (m *Memory) Close() error {
	return nil
}
