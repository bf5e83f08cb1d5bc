package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/MKhiriev/go-push-sync/internal/crypto"
)

type fileKeychain struct {
	path   string
	sealer crypto.Sealer

	mu     sync.Mutex
	values map[string]string
}

// NewFileKeychain returns a [Keychain] stored as a single sealed JSON file.
// Every change rewrites the file atomically, so a crash never leaves a half
// written keychain behind.
func NewFileKeychain(path string, sealer crypto.Sealer) (Keychain, error) {
	k := &fileKeychain{
		path:   path,
		sealer: sealer,
		values: make(map[string]string),
	}
	if err := k.load(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *fileKeychain) load() error {
	sealed, err := os.ReadFile(k.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read keychain file: %w", err)
	}

	plain, err := k.sealer.Open(sealed)
	if err != nil {
		return fmt.Errorf("%w: keychain: %w", ErrCorruptedSnapshot, err)
	}
	if err = json.Unmarshal(plain, &k.values); err != nil {
		return fmt.Errorf("%w: decode keychain: %w", ErrCorruptedSnapshot, err)
	}
	if k.values == nil {
		k.values = make(map[string]string)
	}
	return nil
}

// persist must be called with k.mu held.
func (k *fileKeychain) persist(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode keychain: %w", err)
	}
	sealed, err := k.sealer.Seal(plain)
	if err != nil {
		return fmt.Errorf("seal keychain: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("create keychain dir: %w", err)
	}
	if err = atomic.WriteFile(k.path, bytes.NewReader(sealed)); err != nil {
		return fmt.Errorf("write keychain file: %w", err)
	}
	return nil
}

func (k *fileKeychain) Get(_ context.Context, key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	v, ok := k.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (k *fileKeychain) Set(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	next := k.copyValues()
	next[key] = value
	if err := k.persist(next); err != nil {
		return err
	}
	k.values = next
	return nil
}

func (k *fileKeychain) Remove(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.values[key]; !ok {
		return nil
	}
	next := k.copyValues()
	delete(next, key)
	if err := k.persist(next); err != nil {
		return err
	}
	k.values = next
	return nil
}

func (k *fileKeychain) Clear(_ context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	next := make(map[string]string)
	if err := k.persist(next); err != nil {
		return err
	}
	k.values = next
	return nil
}

func (k *fileKeychain) copyValues() map[string]string {
	out := make(map[string]string, len(k.values)+1)
	for key, v := range k.values {
		out[key] = v
	}
	return out
}
