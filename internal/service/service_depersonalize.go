// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-push-sync/internal/adapter"
	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/queue"
	"github.com/MKhiriev/go-push-sync/internal/store"
	"github.com/MKhiriev/go-push-sync/models"
)

// DepersonalizeFunc receives the outcome of a depersonalization.
type DepersonalizeFunc func(status models.DepersonalizationStatus, err error)

// DepersonalizeTicket tracks a depersonalization request.
type DepersonalizeTicket struct {
	*queue.Ticket
	coordinator *Depersonalizer
}

// Wait blocks until the request finished and returns its status: success,
// pending (will be retried) or undefined (failure limit reached).
func (t *DepersonalizeTicket) Wait(ctx context.Context) (models.DepersonalizationStatus, error) {
	err := t.Ticket.Wait(ctx)
	if ctx.Err() != nil && err == ctx.Err() {
		return "", err
	}
	return t.coordinator.statusOf(context.WithoutCancel(ctx), err), err
}

// Depersonalizer coordinates the depersonalization protocol. Its status is
// kept in the current internal data so a restart resumes it.
type Depersonalizer struct {
	store        *store.ProfileStore
	remote       adapter.RemoteAPI
	queue        *queue.Queue
	subservices  *Subservices
	appCode      string
	failureLimit int
	logger       *logger.Logger
}

// Depersonalize enqueues the depersonalization ahead of every ordinary
// task that did not start yet.
func (d *Depersonalizer) Depersonalize(ctx context.Context, userInitiated bool, onFinish DepersonalizeFunc) *DepersonalizeTicket {
	key := queue.Key{Type: taskDepersonalize, Target: string(models.ProfileInstallation)}

	var cb func(error)
	if onFinish != nil {
		cb = func(err error) {
			onFinish(d.statusOf(context.Background(), err), err)
		}
	}

	// failures are counted per attempt, continuation happens on the next
	// foreground or sync trigger
	task := queue.NewTask(key, queue.VeryHigh, d.depersonalize, queue.WithRetryLimit(0), queue.WaitForReachability(false))
	logger.FromContext(ctx).Info().Str("func", "Depersonalizer.Depersonalize").Bool("user_initiated", userInitiated).Msg("depersonalization requested")

	return &DepersonalizeTicket{Ticket: d.queue.Enqueue(task, cb), coordinator: d}
}

// ResumeIfPending re-enqueues a depersonalization left pending. It
// returns nil when nothing is pending.
func (d *Depersonalizer) ResumeIfPending(ctx context.Context) (*DepersonalizeTicket, error) {
	status, err := d.CurrentStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status != models.DepersonalizationPending {
		return nil, nil
	}
	return d.Depersonalize(ctx, false, nil), nil
}

// CompleteTransition finishes a depersonalization interrupted after the
// backend confirmed it.
func (d *Depersonalizer) CompleteTransition(ctx context.Context) error {
	status, err := d.CurrentStatus(ctx)
	if err != nil {
		return err
	}
	if status != models.DepersonalizationSuccess {
		return nil
	}
	return d.finishSuccess(ctx)
}

// CurrentStatus returns the persisted status.
func (d *Depersonalizer) CurrentStatus(ctx context.Context) (models.DepersonalizationStatus, error) {
	internal, err := d.store.LoadInternal(ctx)
	if err != nil {
		return models.DepersonalizationUndefined, err
	}
	return internal.DepersonalizeStatus, nil
}

func (d *Depersonalizer) statusOf(ctx context.Context, err error) models.DepersonalizationStatus {
	switch {
	case err == nil:
		return models.DepersonalizationSuccess
	case errors.Is(err, ErrDepersonalizeGaveUp):
		return models.DepersonalizationUndefined
	case errors.Is(err, ErrDepersonalizePending):
		return models.DepersonalizationPending
	}

	status, loadErr := d.CurrentStatus(ctx)
	if loadErr != nil {
		return models.DepersonalizationUndefined
	}
	return status
}

func (d *Depersonalizer) depersonalize(ctx context.Context) error {
	log := logger.FromContext(ctx)

	inst, err := d.store.LoadInstallation(ctx, models.SlotCurrent)
	if err != nil {
		return err
	}

	if err = d.wipeLocalData(ctx); err != nil {
		return err
	}
	if err = d.subservices.DepersonalizeService(ctx); err != nil {
		log.Warn().Err(err).Str("func", "Depersonalizer.depersonalize").Msg("subservice wipe incomplete")
	}

	if inst.HasIdentity() {
		err = d.remote.Depersonalize(ctx, d.appCode, inst.PushRegistrationID)
		if errors.Is(err, adapter.ErrNoSuchRegistration) {
			log.Warn().Err(err).Str("func", "Depersonalizer.depersonalize").Msg("backend does not know the registration")
			err = nil
		}
	}
	if err != nil {
		return d.recordFailure(ctx, err)
	}

	if _, err = d.store.UpdateInternal(ctx, func(data *models.InternalData) error {
		data.DepersonalizeStatus = models.DepersonalizationSuccess
		data.DepersonalizeFailCounter = 0
		return nil
	}); err != nil {
		return fmt.Errorf("save depersonalization status: %w", err)
	}

	log.Info().Str("func", "Depersonalizer.depersonalize").Msg("installation depersonalized")
	return d.finishSuccess(ctx)
}

// wipeLocalData removes the user and every personal field of the
// installation. The identity and the push token are kept.
func (d *Depersonalizer) wipeLocalData(ctx context.Context) error {
	if err := d.store.Reset(ctx, models.ProfileUser); err != nil {
		return fmt.Errorf("wipe user: %w", err)
	}

	for _, slot := range []models.Slot{models.SlotCurrent, models.SlotDirty} {
		_, err := d.store.Update(ctx, models.ProfileInstallation, slot, func(old delta.Map) (delta.Map, error) {
			if old == nil && slot == models.SlotDirty {
				return nil, errSkip
			}
			inst, err := models.InstallationFromMap(old)
			if err != nil {
				return nil, err
			}
			return inst.WithoutPersonalData().ToMap()
		})
		if err != nil && !errors.Is(err, errSkip) {
			return fmt.Errorf("wipe installation: %w", err)
		}
	}
	return nil
}

func (d *Depersonalizer) recordFailure(ctx context.Context, cause error) error {
	cancelled := ctx.Err() != nil
	ctx = context.WithoutCancel(ctx)

	data, err := d.store.UpdateInternal(ctx, func(data *models.InternalData) error {
		if !cancelled {
			data.DepersonalizeFailCounter++
		}
		if d.failureLimit > 0 && data.DepersonalizeFailCounter >= d.failureLimit {
			data.DepersonalizeStatus = models.DepersonalizationUndefined
			data.DepersonalizeFailCounter = 0
			return nil
		}
		data.DepersonalizeStatus = models.DepersonalizationPending
		return nil
	})
	if err != nil {
		return errors.Join(cause, fmt.Errorf("save depersonalization status: %w", err))
	}

	log := logger.FromContext(ctx)
	if data.DepersonalizeStatus == models.DepersonalizationUndefined {
		log.Warn().Err(cause).Str("func", "Depersonalizer.recordFailure").Int("limit", d.failureLimit).
			Msg("depersonalization failure limit reached, giving up")
		return fmt.Errorf("%w: %w", ErrDepersonalizeGaveUp, cause)
	}

	log.Warn().Err(cause).Str("func", "Depersonalizer.recordFailure").
		Int("failures", data.DepersonalizeFailCounter).Msg("depersonalization pending")
	return fmt.Errorf("%w: %w", ErrDepersonalizePending, cause)
}

// finishSuccess leaves the transitional state. The status change resumes
// the subservices through the current change observer of the engine.
func (d *Depersonalizer) finishSuccess(ctx context.Context) error {
	_, err := d.store.UpdateInternal(ctx, func(data *models.InternalData) error {
		data.DepersonalizeStatus = models.DepersonalizationUndefined
		data.DepersonalizeFailCounter = 0
		return nil
	})
	if err != nil {
		return fmt.Errorf("save depersonalization status: %w", err)
	}
	return nil
}
