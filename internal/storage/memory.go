package storage

import (
	"context"
	"sync"

	"dca-backtest/internal/model"
)

// Memory is a process-local Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEntry(e), nil
}

func (m *Memory) Put(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[e.Key] = copyEntry(e)
	return nil
}

func (m *Memory) Close() error { return nil }

func copyEntry(e *Entry) *Entry {
	out := *e
	out.Observations = append([]model.Observation(nil), e.Observations...)
	return &out
}
