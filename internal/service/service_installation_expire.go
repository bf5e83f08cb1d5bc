package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-push-sync/internal/adapter"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/queue"
	"github.com/MKhiriev/go-push-sync/internal/store"
)

// expirer invalidates registrations that were replaced by a new identity,
// e.g. after a reinstall restored an old backup.
type expirer struct {
	keychain store.Keychain
	remote   adapter.RemoteAPI
	queue    *queue.Queue
	appCode  string
	policy   retryPolicy
	logger   *logger.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newExpirer(keychain store.Keychain, remote adapter.RemoteAPI, q *queue.Queue, appCode string, policy retryPolicy, log *logger.Logger) *expirer {
	return &expirer{
		keychain: keychain,
		remote:   remote,
		queue:    q,
		appCode:  appCode,
		policy:   policy,
		logger:   log,
		inFlight: make(map[string]struct{}),
	}
}

// expireIfNeeded compares the confirmed identity with the last known one.
// Without a last known identity it is just stored. On mismatch exactly one
// expire task is enqueued for the stale identity.
func (e *expirer) expireIfNeeded(ctx context.Context, identity string) error {
	last, err := e.keychain.Get(ctx, store.KeyLastKnownIdentity)
	if errors.Is(err, store.ErrKeyNotFound) || (err == nil && last == "") {
		if err = e.keychain.Set(ctx, store.KeyLastKnownIdentity, identity); err != nil {
			return fmt.Errorf("store last known identity: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read last known identity: %w", err)
	}
	if last == identity {
		return nil
	}

	e.mu.Lock()
	if _, ok := e.inFlight[last]; ok {
		e.mu.Unlock()
		return nil
	}
	e.inFlight[last] = struct{}{}
	e.mu.Unlock()

	key := queue.Key{Type: taskExpire, Target: last}
	run := func(ctx context.Context) error {
		return e.expire(ctx, identity, last)
	}
	// the stale registration is expired in the background
	e.queue.Enqueue(queue.NewTask(key, queue.Normal, run, e.policy.opts(false)...), func(err error) {
		e.mu.Lock()
		delete(e.inFlight, last)
		e.mu.Unlock()

		if err != nil {
			e.logger.Err(err).Str("func", "expirer.expireIfNeeded").Str("expired_id", last).Msg("failed to expire stale registration")
		}
	})

	logger.FromContext(ctx).Info().Str("func", "expirer.expireIfNeeded").
		Str("push_registration_id", identity).Str("expired_id", last).Msg("stale registration scheduled for expiry")
	return nil
}

func (e *expirer) expire(ctx context.Context, identity, stale string) error {
	err := e.remote.DeleteInstance(ctx, e.appCode, identity, stale)
	if err != nil && !errors.Is(err, adapter.ErrNoSuchRegistration) {
		return fmt.Errorf("expire registration: %w", err)
	}

	if err = e.keychain.Set(ctx, store.KeyLastKnownIdentity, identity); err != nil {
		return fmt.Errorf("store last known identity: %w", err)
	}
	return nil
}
