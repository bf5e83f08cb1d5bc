package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON field names.
type StructuredJSONConfig struct {
	App struct {
		Code    string `json:"code"`
		JWT     string `json:"jwt"`
		Version string `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		ArchiveDSN   string `json:"archive_dsn"`
		KeychainPath string `json:"keychain_path"`
		Secret       string `json:"secret"`
	} `json:"storage,omitempty"`

	Adapter struct {
		BaseURL        string   `json:"base_url"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Sync struct {
		RetryLimit                int      `json:"retry_limit"`
		RetryBackoff              Duration `json:"retry_backoff"`
		MaxRetryBackoff           Duration `json:"max_retry_backoff"`
		DepersonalizeFailureLimit int      `json:"depersonalize_failure_limit"`
	} `json:"sync,omitempty"`

	Workers struct {
		SyncInterval  Duration `json:"sync_interval"`
		ProbeInterval Duration `json:"probe_interval"`
	} `json:"workers,omitempty"`

	Stub struct {
		Enabled bool   `json:"enabled"`
		Address string `json:"address"`
	} `json:"stub,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Code:    jsonCfg.App.Code,
			JWT:     jsonCfg.App.JWT,
			Version: jsonCfg.App.Version,
		},
		Storage: Storage{
			ArchiveDSN:   jsonCfg.Storage.ArchiveDSN,
			KeychainPath: jsonCfg.Storage.KeychainPath,
			Secret:       jsonCfg.Storage.Secret,
		},
		Adapter: Adapter{
			BaseURL:        jsonCfg.Adapter.BaseURL,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Sync: Sync{
			RetryLimit:                jsonCfg.Sync.RetryLimit,
			RetryBackoff:              time.Duration(jsonCfg.Sync.RetryBackoff),
			MaxRetryBackoff:           time.Duration(jsonCfg.Sync.MaxRetryBackoff),
			DepersonalizeFailureLimit: jsonCfg.Sync.DepersonalizeFailureLimit,
		},
		Workers: Workers{
			SyncInterval:  time.Duration(jsonCfg.Workers.SyncInterval),
			ProbeInterval: time.Duration(jsonCfg.Workers.ProbeInterval),
		},
		Stub: Stub{
			Enabled: jsonCfg.Stub.Enabled,
			Address: jsonCfg.Stub.Address,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
