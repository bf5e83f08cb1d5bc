// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/models"
)

// CurrentChangeFunc observes writes to a current slot. old and updated are
// private copies; a nil map means the slot was empty.
type CurrentChangeFunc func(ctx context.Context, t models.ProfileType, old, updated delta.Map)

type cacheEntry struct {
	value  delta.Map
	exists bool
}

// ProfileStore keeps the current and dirty snapshots of every profile type.
//
// Reads are served from an in-memory cache backed by the [Archive]. Writes go
// to the archive first and reach the cache only when the archive accepted them.
// Every value crossing the store boundary is deep-copied, so no caller ever
// observes a torn or shared profile.
type ProfileStore struct {
	archive Archive
	logger  *logger.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
	// generations count the resets of every profile type.
	generations map[models.ProfileType]uint64

	obsMu     sync.RWMutex
	observers []CurrentChangeFunc
}

// NewProfileStore returns a store over archive.
func NewProfileStore(archive Archive, log *logger.Logger) *ProfileStore {
	return &ProfileStore{
		archive: archive,
		logger:  log,
		cache:   make(map[string]cacheEntry),

		generations: make(map[models.ProfileType]uint64),
	}
}

// Generation returns the number of resets of t so far. Pass it to
// [ProfileStore.UpdateAt] to write only when t was not reset in between.
func (s *ProfileStore) Generation(t models.ProfileType) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.generations[t]
}

// OnCurrentChange registers fn to be called after every successful write of
// a current slot, including resets.
func (s *ProfileStore) OnCurrentChange(fn CurrentChangeFunc) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	s.observers = append(s.observers, fn)
}

// Load returns the snapshot of the slot, or an empty map when nothing was
// saved yet.
func (s *ProfileStore) Load(ctx context.Context, t models.ProfileType, slot models.Slot) (delta.Map, error) {
	m, _, err := s.Lookup(ctx, t, slot)
	if m == nil && err == nil {
		m = delta.Map{}
	}
	return m, err
}

// Lookup is like [ProfileStore.Load] but also reports whether the slot was
// ever saved. A missing slot yields a nil map.
func (s *ProfileStore) Lookup(ctx context.Context, t models.ProfileType, slot models.Slot) (delta.Map, bool, error) {
	key := models.StorageKey(t, slot)

	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return entry.value.Clone(), entry.exists, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.loadLocked(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return entry.value.Clone(), entry.exists, nil
}

// loadLocked must be called with s.mu held for writing.
func (s *ProfileStore) loadLocked(ctx context.Context, key string) (cacheEntry, error) {
	if entry, ok := s.cache[key]; ok {
		return entry, nil
	}

	raw, err := s.archive.Get(ctx, key)
	if errors.Is(err, ErrSnapshotNotFound) {
		entry := cacheEntry{}
		s.cache[key] = entry
		return entry, nil
	}
	if err != nil {
		s.logger.Err(err).Str("func", "ProfileStore.Load").Str("key", key).Msg("failed to read snapshot from archive")
		return cacheEntry{}, fmt.Errorf("load %s: %w", key, err)
	}

	var m delta.Map
	if err = json.Unmarshal(raw, &m); err != nil {
		s.logger.Err(err).Str("func", "ProfileStore.Load").Str("key", key).Msg("failed to decode snapshot")
		return cacheEntry{}, fmt.Errorf("%w: %s: %w", ErrCorruptedSnapshot, key, err)
	}
	if m == nil {
		m = delta.Map{}
	}

	entry := cacheEntry{value: m, exists: true}
	s.cache[key] = entry
	return entry, nil
}

// Save replaces the snapshot of the slot. The slot reflects exactly the last
// successful Save.
func (s *ProfileStore) Save(ctx context.Context, t models.ProfileType, slot models.Slot, m delta.Map) error {
	_, err := s.Update(ctx, t, slot, func(delta.Map) (delta.Map, error) {
		return m, nil
	})
	return err
}

// Update atomically replaces the snapshot of the slot with fn(old). fn runs
// under the store lock and must not call back into the store. When fn
// returns an error nothing is written.
func (s *ProfileStore) Update(ctx context.Context, t models.ProfileType, slot models.Slot, fn func(old delta.Map) (delta.Map, error)) (delta.Map, error) {
	return s.update(ctx, t, slot, nil, fn)
}

// UpdateAt is like [ProfileStore.Update] but fails with [ErrProfileReset]
// when t was reset since generation was read.
func (s *ProfileStore) UpdateAt(ctx context.Context, t models.ProfileType, slot models.Slot, generation uint64, fn func(old delta.Map) (delta.Map, error)) (delta.Map, error) {
	return s.update(ctx, t, slot, &generation, fn)
}

// SaveAt is like [ProfileStore.Save] but fails with [ErrProfileReset] when t
// was reset since generation was read.
func (s *ProfileStore) SaveAt(ctx context.Context, t models.ProfileType, slot models.Slot, generation uint64, m delta.Map) error {
	_, err := s.UpdateAt(ctx, t, slot, generation, func(delta.Map) (delta.Map, error) {
		return m, nil
	})
	return err
}

func (s *ProfileStore) update(ctx context.Context, t models.ProfileType, slot models.Slot, generation *uint64, fn func(old delta.Map) (delta.Map, error)) (delta.Map, error) {
	key := models.StorageKey(t, slot)

	s.mu.Lock()
	if generation != nil && *generation != s.generations[t] {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrProfileReset, t)
	}
	old, err := s.loadLocked(ctx, key)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	updated, err := fn(old.value.Clone())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	updated = updated.Clone()
	if updated == nil {
		updated = delta.Map{}
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	if err = s.archive.Put(ctx, key, raw); err != nil {
		s.mu.Unlock()
		s.logger.Err(err).Str("func", "ProfileStore.Save").Str("key", key).Msg("failed to write snapshot to archive")
		return nil, fmt.Errorf("save %s: %w", key, err)
	}
	s.cache[key] = cacheEntry{value: updated, exists: true}
	s.mu.Unlock()

	if slot == models.SlotCurrent {
		s.handleCurrentChanges(ctx, t, old.value, updated)
	}
	return updated.Clone(), nil
}

// Reset removes both slots of t from the archive and the cache.
func (s *ProfileStore) Reset(ctx context.Context, t models.ProfileType) error {
	currentKey := models.StorageKey(t, models.SlotCurrent)
	dirtyKey := models.StorageKey(t, models.SlotDirty)

	s.mu.Lock()
	old, err := s.loadLocked(ctx, currentKey)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err = s.archive.Delete(ctx, currentKey, dirtyKey); err != nil {
		s.mu.Unlock()
		s.logger.Err(err).Str("func", "ProfileStore.Reset").Str("type", string(t)).Msg("failed to delete snapshots")
		return fmt.Errorf("reset %s: %w", t, err)
	}
	s.cache[currentKey] = cacheEntry{}
	s.cache[dirtyKey] = cacheEntry{}
	s.generations[t]++
	s.mu.Unlock()

	if old.exists {
		s.handleCurrentChanges(ctx, t, old.value, nil)
	}
	return nil
}

// ResetAll clears every profile and any other snapshot kept in the archive.
func (s *ProfileStore) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	olds := make(map[models.ProfileType]cacheEntry, len(models.ProfileTypes))
	for _, t := range models.ProfileTypes {
		old, err := s.loadLocked(ctx, models.StorageKey(t, models.SlotCurrent))
		if err != nil {
			s.mu.Unlock()
			return err
		}
		olds[t] = old
	}
	if err := s.archive.Clear(ctx); err != nil {
		s.mu.Unlock()
		s.logger.Err(err).Str("func", "ProfileStore.ResetAll").Msg("failed to clear archive")
		return fmt.Errorf("reset all profiles: %w", err)
	}
	s.cache = make(map[string]cacheEntry)
	for _, t := range models.ProfileTypes {
		s.generations[t]++
	}
	s.mu.Unlock()

	for _, t := range models.ProfileTypes {
		if olds[t].exists {
			s.handleCurrentChanges(ctx, t, olds[t].value, nil)
		}
	}
	return nil
}

func (s *ProfileStore) handleCurrentChanges(ctx context.Context, t models.ProfileType, old, updated delta.Map) {
	s.obsMu.RLock()
	observers := append([]CurrentChangeFunc(nil), s.observers...)
	s.obsMu.RUnlock()

	for _, fn := range observers {
		fn(ctx, t, old.Clone(), updated.Clone())
	}
}
