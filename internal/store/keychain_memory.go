package store

import (
	"context"
	"sync"
)

type memoryKeychain struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKeychain returns a process-local [Keychain].
func NewMemoryKeychain() Keychain {
	return &memoryKeychain{values: make(map[string]string)}
}

func (k *memoryKeychain) Get(_ context.Context, key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	v, ok := k.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (k *memoryKeychain) Set(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.values[key] = value
	return nil
}

func (k *memoryKeychain) Remove(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.values, key)
	return nil
}

func (k *memoryKeychain) Clear(_ context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.values = make(map[string]string)
	return nil
}
