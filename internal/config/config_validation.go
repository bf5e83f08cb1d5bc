// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"net/url"
)

func (c *EngineConfig) validate() error {
	if c.App.Code == "" {
		return ErrInvalidAppConfigs
	}

	u, err := url.Parse(c.Adapter.BaseURL)
	if c.Adapter.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base url %q", ErrInvalidAdapterConfigs, c.Adapter.BaseURL)
	}
	if c.Adapter.RequestTimeout < 0 {
		return ErrInvalidAdapterConfigs
	}

	if c.Storage.ArchiveDSN == "" || c.Storage.KeychainPath == "" || c.Storage.Secret == "" {
		return ErrInvalidStorageConfigs
	}

	if c.Sync.RetryLimit < 0 || c.Sync.DepersonalizeFailureLimit < 0 ||
		c.Sync.RetryBackoff < 0 || c.Sync.MaxRetryBackoff < c.Sync.RetryBackoff {
		return ErrInvalidSyncConfigs
	}

	if c.Workers.SyncInterval < 0 || c.Workers.ProbeInterval < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
