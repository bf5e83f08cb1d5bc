package store

import (
	"context"
	"sync"
)

type memoryArchive struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryArchive returns a process-local [Archive]. Snapshots do not
// survive a restart.
func NewMemoryArchive() Archive {
	return &memoryArchive{items: make(map[string][]byte)}
}

func (a *memoryArchive) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	v, ok := a.items[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return append([]byte(nil), v...), nil
}

func (a *memoryArchive) Put(_ context.Context, key string, value []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items[key] = append([]byte(nil), value...)
	return nil
}

func (a *memoryArchive) Delete(_ context.Context, keys ...string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, k := range keys {
		delete(a.items, k)
	}
	return nil
}

func (a *memoryArchive) Clear(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items = make(map[string][]byte)
	return nil
}
