// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto protects profile snapshots and keychain scalars at rest.
//
// A [Sealer] encrypts opaque blobs with AES-256-GCM. The key is derived from
// a device secret with Argon2id and never leaves the process.
package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/sealer_mock.go -package=mock

// Sealer encrypts and decrypts blobs stored on disk.
type Sealer interface {
	// Seal encrypts plaintext. The output is nonce ‖ ciphertext.
	Seal(plaintext []byte) ([]byte, error)

	// Open decrypts a blob produced by Seal. It fails when the blob was
	// produced with another key or has been tampered with.
	Open(blob []byte) ([]byte, error)
}
