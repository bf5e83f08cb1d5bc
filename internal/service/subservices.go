package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-push-sync/internal/logger"
)

// Subservices fans lifecycle events out to every registered [Subservice].
type Subservices struct {
	logger *logger.Logger

	mu   sync.RWMutex
	list []Subservice
}

// NewSubservices returns a registry holding subs.
func NewSubservices(log *logger.Logger, subs ...Subservice) *Subservices {
	return &Subservices{logger: log, list: subs}
}

// Register adds s to the registry.
func (r *Subservices) Register(s Subservice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.list = append(r.list, s)
}

// Names returns the names of the registered subservices.
func (r *Subservices) Names() []string {
	subs := r.snapshot()
	names := make([]string, 0, len(subs))
	for _, s := range subs {
		names = append(names, s.Name())
	}
	return names
}

// DepersonalizeService runs every hook concurrently and waits for all of
// them. The first failure is returned; every failure is logged.
func (r *Subservices) DepersonalizeService(ctx context.Context) error {
	return r.fanOut(ctx, "DepersonalizeService", Subservice.DepersonalizeService)
}

// UpdateRegistrationEnabledStatus notifies every subservice.
func (r *Subservices) UpdateRegistrationEnabledStatus(ctx context.Context) error {
	return r.fanOut(ctx, "UpdateRegistrationEnabledStatus", Subservice.UpdateRegistrationEnabledStatus)
}

// AppWillEnterForeground notifies every subservice.
func (r *Subservices) AppWillEnterForeground(ctx context.Context) error {
	return r.fanOut(ctx, "AppWillEnterForeground", Subservice.AppWillEnterForeground)
}

func (r *Subservices) fanOut(ctx context.Context, hook string, fn func(Subservice, context.Context) error) error {
	var g errgroup.Group
	for _, s := range r.snapshot() {
		g.Go(func() error {
			if err := fn(s, ctx); err != nil {
				r.logger.Err(err).Str("func", "Subservices."+hook).Str("subservice", s.Name()).Msg("subservice hook failed")
				return fmt.Errorf("%s: %s: %w", s.Name(), hook, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Subservices) snapshot() []Subservice {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Subservice(nil), r.list...)
}
