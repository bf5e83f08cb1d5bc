// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package subservice holds the components that keep their own personal data
// next to the installation: the inbox message store, geofencing, the chat
// session and the session tracker.
//
// Each of them implements [service.Subservice]. They suspend themselves while
// the registration is disabled and wipe their data on depersonalization.
package subservice

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/service"
)

// gate caches the registration status reported by a
// [service.RegistrationStatusSource].
type gate struct {
	name    string
	source  service.RegistrationStatusSource
	enabled atomic.Bool
	logger  *logger.Logger
}

func newGate(name string, source service.RegistrationStatusSource, log *logger.Logger) *gate {
	return &gate{name: name, source: source, logger: log}
}

// refresh re-reads the status and returns whether it changed.
func (g *gate) refresh(ctx context.Context) (bool, error) {
	enabled, err := g.source.IsRegistrationEnabled(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: read registration status: %w", g.name, err)
	}

	changed := g.enabled.Swap(enabled) != enabled
	if changed {
		g.logger.Info().Str("func", "gate.refresh").Str("subservice", g.name).Bool("enabled", enabled).
			Msg("registration status changed")
	}
	return changed, nil
}

func (g *gate) check() error {
	if !g.enabled.Load() {
		return ErrSuspended
	}
	return nil
}

var (
	_ service.Subservice = (*MessageStore)(nil)
	_ service.Subservice = (*Geofencing)(nil)
	_ service.Subservice = (*Chat)(nil)
	_ service.Subservice = (*SessionTracker)(nil)
)
