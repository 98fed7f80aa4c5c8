package state

import (
	"context"
	"sync"
)

// Memory is an in-process Store for tests and development.
type Memory[T any] struct {
	mu     sync.RWMutex
	values map[int64]T
}

// NewMemory constructs an empty in-memory store.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{values: make(map[int64]T)}
}

func (m *Memory[T]) Get(_ context.Context, key int64) (T, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory[T]) Put(_ context.Context, key int64, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory[T]) Delete(_ context.Context, key int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len reports how many keys are stored.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
