package subservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/service"
	"github.com/MKhiriev/go-push-sync/internal/store"
)

// SessionCountersKey is the archive key of the session counters.
const SessionCountersKey = "session-counters"

// SessionCounters describe how the app was used since the last
// depersonalization.
type SessionCounters struct {
	Sessions      int       `json:"sessions"`
	FirstSeenAt   time.Time `json:"firstSeenAt"`
	LastSessionAt time.Time `json:"lastSessionAt"`
}

// SessionTracker counts app sessions. A session starts on every foreground
// transition while the registration is enabled.
type SessionTracker struct {
	archive store.Archive
	gate    *gate
	clock   clockwork.Clock
	logger  *logger.Logger

	mu sync.Mutex
}

// NewSessionTracker returns a tracker persisting its counters in archive.
func NewSessionTracker(archive store.Archive, source service.RegistrationStatusSource, clock clockwork.Clock, log *logger.Logger) *SessionTracker {
	return &SessionTracker{
		archive: archive,
		gate:    newGate("sessions", source, log),
		clock:   clock,
		logger:  log,
	}
}

func (t *SessionTracker) Name() string { return "sessions" }

// Counters returns the stored counters, zero when nothing was tracked yet.
func (t *SessionTracker) Counters(ctx context.Context) (SessionCounters, error) {
	raw, err := t.archive.Get(ctx, SessionCountersKey)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return SessionCounters{}, nil
	}
	if err != nil {
		return SessionCounters{}, fmt.Errorf("read session counters: %w", err)
	}

	var c SessionCounters
	if err = json.Unmarshal(raw, &c); err != nil {
		return SessionCounters{}, fmt.Errorf("%w: %s: %w", store.ErrCorruptedSnapshot, SessionCountersKey, err)
	}
	return c, nil
}

// StartSession counts a new session.
func (t *SessionTracker) StartSession(ctx context.Context) (SessionCounters, error) {
	if err := t.gate.check(); err != nil {
		return SessionCounters{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.Counters(ctx)
	if err != nil {
		return SessionCounters{}, err
	}

	now := t.clock.Now().UTC()
	if c.Sessions == 0 {
		c.FirstSeenAt = now
	}
	c.Sessions++
	c.LastSessionAt = now

	raw, err := json.Marshal(c)
	if err != nil {
		return SessionCounters{}, fmt.Errorf("encode session counters: %w", err)
	}
	if err = t.archive.Put(ctx, SessionCountersKey, raw); err != nil {
		t.logger.Err(err).Str("func", "SessionTracker.StartSession").Msg("failed to store session counters")
		return SessionCounters{}, fmt.Errorf("store session counters: %w", err)
	}
	return c, nil
}

// DepersonalizeService resets the counters.
func (t *SessionTracker) DepersonalizeService(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.archive.Delete(ctx, SessionCountersKey); err != nil {
		return fmt.Errorf("reset session counters: %w", err)
	}
	return nil
}

func (t *SessionTracker) UpdateRegistrationEnabledStatus(ctx context.Context) error {
	_, err := t.gate.refresh(ctx)
	return err
}

// AppWillEnterForeground starts a session when tracking is allowed.
func (t *SessionTracker) AppWillEnterForeground(ctx context.Context) error {
	if err := t.UpdateRegistrationEnabledStatus(ctx); err != nil {
		return err
	}
	if t.gate.check() != nil {
		return nil
	}

	_, err := t.StartSession(ctx)
	return err
}
