package store

import (
	"bytes"
	"context"
	"sync"
)

// Memory is an in-memory Store.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.data[key]
	return ok, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	d, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(d), nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = bytes.Clone(data)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
