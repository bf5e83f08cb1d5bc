package config

import (
	"fmt"
	"time"
)

// Default values applied by [GetEngineConfig] to unset fields.
const (
	DefaultRequestTimeout            = 30 * time.Second
	DefaultRetryLimit                = 5
	DefaultRetryBackoff              = time.Second
	DefaultMaxRetryBackoff           = time.Minute
	DefaultDepersonalizeFailureLimit = 3
	DefaultSyncInterval              = 15 * time.Minute
	DefaultProbeInterval             = 30 * time.Second
	DefaultStubAddress               = "localhost:8089"
)

// EngineApp holds the application identity.
type EngineApp struct {
	// Code is the application code sent with every backend call.
	Code string
	// JWT is an optional user token for user data calls.
	JWT string
	// Version is reported as system data.
	Version string
}

// EngineAdapter holds outbound transport settings.
type EngineAdapter struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// EngineStorage holds local persistence settings.
type EngineStorage struct {
	ArchiveDSN   string
	KeychainPath string
	Secret       string
}

// EngineSync holds the retry policy and the depersonalization budget.
type EngineSync struct {
	RetryLimit                int
	RetryBackoff              time.Duration
	MaxRetryBackoff           time.Duration
	DepersonalizeFailureLimit int
}

// EngineWorkers contains background job settings.
type EngineWorkers struct {
	SyncInterval  time.Duration
	ProbeInterval time.Duration
}

// EngineStub configures the in-process stub backend.
type EngineStub struct {
	Enabled bool
	Address string
	JWTKey  string
}

// EngineConfig is the validated configuration consumed by the engine,
// assembled from [StructuredConfig] with defaults applied.
type EngineConfig struct {
	App     EngineApp
	Adapter EngineAdapter
	Storage EngineStorage
	Sync    EngineSync
	Workers EngineWorkers
	Stub    EngineStub
}

// GetEngineConfig builds and validates the engine config view from the
// merged structured configuration.
func GetEngineConfig() (*EngineConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	engineCfg := NewEngineConfig(cfg)
	return engineCfg, engineCfg.validate()
}

// NewEngineConfig maps cfg to an [EngineConfig] and fills in defaults.
// It does not validate the result.
func NewEngineConfig(cfg *StructuredConfig) *EngineConfig {
	c := &EngineConfig{
		App: EngineApp{
			Code:    cfg.App.Code,
			JWT:     cfg.App.JWT,
			Version: cfg.App.Version,
		},
		Adapter: EngineAdapter{
			BaseURL:        cfg.Adapter.BaseURL,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: EngineStorage{
			ArchiveDSN:   cfg.Storage.ArchiveDSN,
			KeychainPath: cfg.Storage.KeychainPath,
			Secret:       cfg.Storage.Secret,
		},
		Sync: EngineSync{
			RetryLimit:                cfg.Sync.RetryLimit,
			RetryBackoff:              cfg.Sync.RetryBackoff,
			MaxRetryBackoff:           cfg.Sync.MaxRetryBackoff,
			DepersonalizeFailureLimit: cfg.Sync.DepersonalizeFailureLimit,
		},
		Workers: EngineWorkers{
			SyncInterval:  cfg.Workers.SyncInterval,
			ProbeInterval: cfg.Workers.ProbeInterval,
		},
		Stub: EngineStub{
			Enabled: cfg.Stub.Enabled,
			Address: cfg.Stub.Address,
			JWTKey:  cfg.Stub.JWTKey,
		},
	}
	c.applyDefaults()
	return c
}

func (c *EngineConfig) applyDefaults() {
	if c.Adapter.RequestTimeout == 0 {
		c.Adapter.RequestTimeout = DefaultRequestTimeout
	}
	if c.Sync.RetryLimit == 0 {
		c.Sync.RetryLimit = DefaultRetryLimit
	}
	if c.Sync.RetryBackoff == 0 {
		c.Sync.RetryBackoff = DefaultRetryBackoff
	}
	if c.Sync.MaxRetryBackoff == 0 {
		c.Sync.MaxRetryBackoff = DefaultMaxRetryBackoff
	}
	if c.Sync.DepersonalizeFailureLimit == 0 {
		c.Sync.DepersonalizeFailureLimit = DefaultDepersonalizeFailureLimit
	}
	if c.Workers.SyncInterval == 0 {
		c.Workers.SyncInterval = DefaultSyncInterval
	}
	if c.Workers.ProbeInterval == 0 {
		c.Workers.ProbeInterval = DefaultProbeInterval
	}
	if c.Stub.Enabled && c.Stub.Address == "" {
		c.Stub.Address = DefaultStubAddress
	}
	if c.Stub.Enabled && c.Adapter.BaseURL == "" {
		c.Adapter.BaseURL = "http://" + c.Stub.Address
	}
}
