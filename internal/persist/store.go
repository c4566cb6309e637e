// Package persist keeps the latest canvas state across restarts.
package persist

import (
	"context"
	"slices"
	"sync"
)

// StateKey names the single persisted canvas image.
const StateKey = "whiteboard-state"

// Store holds one encoded canvas image. Each Save overwrites the last.
type Store interface {
	// Load returns the saved image, or nil when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// MemoryStore is a Store that lives as long as the process.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data), nil
}

func (m *MemoryStore) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = slices.Clone(data)
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Close() error { return nil }

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
