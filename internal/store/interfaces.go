// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// Archive is the encrypted-at-rest storage of full profile snapshots.
// Keys follow the "<slot>-<type>" layout, see [models.StorageKey].
type Archive interface {
	// Get returns the snapshot stored under key or [ErrSnapshotNotFound].
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the snapshot stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Clear removes every snapshot.
	Clear(ctx context.Context) error
}

// Keychain keeps small secure scalars such as the last known identity.
type Keychain interface {
	// Get returns the value stored under key or [ErrKeyNotFound].
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. A missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Clear removes every value.
	Clear(ctx context.Context) error
}

// Keychain keys used by the engine.
const (
	// KeyLastKnownIdentity holds the registration id confirmed last, used to
	// expire stale registrations.
	KeyLastKnownIdentity = "last-known-identity"

	// KeyApplicationCodeHash holds the hash of the application code the local
	// data belongs to.
	KeyApplicationCodeHash = "application-code-hash"
)
