// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"time"
)

// StructuredConfig is the top-level configuration container. It aggregates
// all sub-configurations and is populated by merging values from environment
// variables, command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix - prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       - direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App identifies the host application towards the push backend.
	App App `envPrefix:"APP_"`

	// Storage holds the local archive, keychain and sealing settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds the push backend address and request timeout.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Sync holds the retry and depersonalization policy.
	Sync Sync `envPrefix:"SYNC_"`

	// Workers holds the intervals of the background workers.
	Workers Workers `envPrefix:"WORKERS_"`

	// Stub configures the in-process stub backend used for local development.
	Stub Stub `envPrefix:"STUB_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level settings.
type App struct {
	// Code is the application code issued by the push backend.
	// Env: APP_CODE
	Code string `env:"CODE"`

	// JWT is an optional user token. When set, user data calls are
	// authorized with it instead of the application code.
	// Env: APP_JWT
	JWT string `env:"JWT"`

	// Version is the host application version reported as system data.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the local persistence settings.
type Storage struct {
	// ArchiveDSN is the sqlite data source of the profile archive
	// (e.g. "/var/lib/pushsync/archive.db").
	// Env: STORAGE_ARCHIVE_DSN
	ArchiveDSN string `env:"ARCHIVE_DSN"`

	// KeychainPath is the file that keeps small secure scalars.
	// Env: STORAGE_KEYCHAIN_PATH
	KeychainPath string `env:"KEYCHAIN_PATH"`

	// Secret is the device secret the at-rest encryption key is derived from.
	// Must be kept confidential.
	// Env: STORAGE_SECRET
	Secret string `env:"SECRET"`
}

// Adapter holds the outbound transport settings.
type Adapter struct {
	// BaseURL is the push backend base URL (e.g. "https://push.example.com").
	// Env: ADAPTER_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout bounds a single outbound request (e.g. "30s").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Sync holds the task queue retry policy and the depersonalization budget.
type Sync struct {
	// RetryLimit is the number of re-attempts allowed after a retriable failure.
	// Env: SYNC_RETRY_LIMIT
	RetryLimit int `env:"RETRY_LIMIT"`

	// RetryBackoff is the delay before the first retry; it doubles per attempt.
	// Env: SYNC_RETRY_BACKOFF
	RetryBackoff time.Duration `env:"RETRY_BACKOFF"`

	// MaxRetryBackoff caps the retry delay.
	// Env: SYNC_MAX_RETRY_BACKOFF
	MaxRetryBackoff time.Duration `env:"MAX_RETRY_BACKOFF"`

	// DepersonalizeFailureLimit is the number of failed depersonalization
	// attempts after which the status is forced back to undefined.
	// Env: SYNC_DEPERSONALIZE_FAILURE_LIMIT
	DepersonalizeFailureLimit int `env:"DEPERSONALIZE_FAILURE_LIMIT"`
}

// Workers holds background worker settings.
type Workers struct {
	// SyncInterval defines how often the periodic sync runs.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// ProbeInterval defines how often backend reachability is probed.
	// Env: WORKERS_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`
}

// Stub configures the in-process stub push backend.
type Stub struct {
	// Enabled starts the stub and points the adapter at it.
	// Env: STUB_ENABLED
	Enabled bool `env:"ENABLED"`

	// Address is the listen address of the stub in "host:port" format.
	// Env: STUB_ADDRESS
	Address string `env:"ADDRESS"`

	// JWTKey is the HMAC key the stub verifies "JWT" authorization with.
	// JWT authorization is refused when it is empty.
	// Env: STUB_JWT_KEY
	JWTKey string `env:"JWT_KEY"`
}

// GetStructuredConfig loads and merges the configuration from all available
// sources in the following priority order (last source wins for non-zero
// fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(os.Args[1:]).
		withJSON().
		build()
}
