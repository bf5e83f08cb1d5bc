// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package stub keeps the state of an in-memory push backend. It serves the
// HTTP handlers in internal/handler/http during local development and in
// end-to-end tests of the engine.
package stub

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/utils"
)

// Wire field names the backend owns.
const (
	FieldPushRegID        = "pushRegId"
	FieldRegDate          = "regDate"
	FieldPushServiceToken = "pushServiceToken"
	FieldExternalUserID   = "externalUserId"
	FieldType             = "type"

	// UserTypeCustomer is assigned to personalized users.
	UserTypeCustomer = "CUSTOMER"
)

var (
	serverOwnedFields = []string{FieldPushRegID, FieldRegDate}
	identityFields    = []string{FieldExternalUserID, "emails", "phones"}
)

// Caller is the authorized party of a request. Exactly one of the fields
// is set: AppCode for "App" authorization, Subject for a verified JWT.
type Caller struct {
	AppCode string
	Subject string
}

type registration struct {
	appCode  string
	instance delta.Map
	user     delta.Map
}

// Backend is a concurrency-safe in-memory push backend.
type Backend struct {
	mu            sync.Mutex
	registrations map[string]*registration

	available atomic.Bool

	jwtKey    string
	jwtIssuer string

	clock  clockwork.Clock
	ids    *utils.UUIDGenerator
	logger *logger.Logger
}

// Opt configures a [Backend].
type Opt func(*Backend)

// WithClock sets the clock used for registration dates.
func WithClock(clock clockwork.Clock) Opt {
	return func(b *Backend) {
		b.clock = clock
	}
}

// WithJWTKey enables "JWT" authorization of user calls. Tokens must be
// HS256-signed with key and issued by issuer.
func WithJWTKey(key, issuer string) Opt {
	return func(b *Backend) {
		b.jwtKey = key
		b.jwtIssuer = issuer
	}
}

// New returns an empty, available backend.
func New(log *logger.Logger, opts ...Opt) *Backend {
	b := &Backend{
		registrations: make(map[string]*registration),
		clock:         clockwork.NewRealClock(),
		ids:           utils.NewUUIDGenerator(),
		logger:        log,
	}
	b.available.Store(true)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetAvailable switches the backend on or off. While off every call fails
// with [ErrUnavailable].
func (b *Backend) SetAvailable(available bool) {
	b.available.Store(available)
	b.logger.Info().Bool("available", available).Msg("stub backend availability changed")
}

// Authorize resolves an Authorization header split into scheme and
// credential.
func (b *Backend) Authorize(scheme, credential string) (Caller, error) {
	switch scheme {
	case "App":
		return Caller{AppCode: credential}, nil
	case "JWT":
		if b.jwtKey == "" {
			return Caller{}, fmt.Errorf("%w: jwt authorization is disabled", ErrUnauthorized)
		}
		subject, err := utils.ValidateAndParseJWTToken(credential, b.jwtKey, b.jwtIssuer)
		if err != nil {
			return Caller{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return Caller{Subject: subject}, nil
	default:
		return Caller{}, fmt.Errorf("%w: unknown scheme %q", ErrUnauthorized, scheme)
	}
}

// Ping reports whether the backend accepts calls.
func (b *Backend) Ping() error {
	return b.check()
}

// Registrations returns the number of known registrations.
func (b *Backend) Registrations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.registrations)
}

// CreateInstance registers a new installation and returns it with the
// generated push registration id and registration date.
func (b *Backend) CreateInstance(ctx context.Context, caller Caller, body delta.Map) (delta.Map, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	if caller.AppCode == "" {
		return nil, fmt.Errorf("%w: instance creation requires an application code", ErrUnauthorized)
	}
	if token, ok := body[FieldPushServiceToken].AsString(); !ok || token == "" {
		return nil, ErrMissingPushToken
	}

	id := b.ids.Generate()
	instance := delta.Redact(body, serverOwnedFields...)
	instance[FieldPushRegID] = delta.String(id)
	instance[FieldRegDate] = delta.String(b.clock.Now().UTC().Format(time.RFC3339))

	b.mu.Lock()
	b.registrations[id] = &registration{
		appCode:  caller.AppCode,
		instance: instance,
		user:     delta.Map{},
	}
	b.mu.Unlock()

	logger.FromContext(ctx).Info().Str("func", "Backend.CreateInstance").
		Str("push_registration_id", id).Msg("instance created")
	return instance.Clone(), nil
}

// UpdateInstance merges patch into the installation. Server-owned fields
// in patch are ignored.
func (b *Backend) UpdateInstance(ctx context.Context, caller Caller, regID string, patch delta.Map) error {
	return b.modify(caller, regID, func(reg *registration) error {
		reg.instance = delta.Apply(reg.instance, delta.Redact(patch, serverOwnedFields...))
		return nil
	})
}

// DeleteInstance removes expiredID on behalf of the live registration regID.
func (b *Backend) DeleteInstance(ctx context.Context, caller Caller, regID, expiredID string) error {
	if err := b.check(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	owner, err := b.lookupLocked(caller, regID)
	if err != nil {
		return err
	}
	expired, ok := b.registrations[expiredID]
	if !ok || expired.appCode != owner.appCode {
		return fmt.Errorf("%w: %s", ErrNoRegistration, expiredID)
	}
	delete(b.registrations, expiredID)

	logger.FromContext(ctx).Info().Str("func", "Backend.DeleteInstance").
		Str("push_registration_id", expiredID).Msg("expired instance deleted")
	return nil
}

// FetchInstance returns the installation of regID.
func (b *Backend) FetchInstance(ctx context.Context, caller Caller, regID string) (delta.Map, error) {
	var out delta.Map
	err := b.modify(caller, regID, func(reg *registration) error {
		out = reg.instance.Clone()
		return nil
	})
	return out, err
}

// FetchUser returns the user bound to regID. It is empty when the
// installation is not personalized.
func (b *Backend) FetchUser(ctx context.Context, caller Caller, regID string) (delta.Map, error) {
	var out delta.Map
	err := b.modify(caller, regID, func(reg *registration) error {
		out = reg.user.Clone()
		return nil
	})
	return out, err
}

// UpdateUser merges patch into the user bound to regID.
func (b *Backend) UpdateUser(ctx context.Context, caller Caller, regID string, patch delta.Map) error {
	return b.modify(caller, regID, func(reg *registration) error {
		reg.user = delta.Apply(reg.user, patch)
		return nil
	})
}

// Personalize binds the person described by identity to regID. An
// installation already bound to someone else is rebound only when force is
// set.
func (b *Backend) Personalize(ctx context.Context, caller Caller, regID string, identity, attributes delta.Map, force bool) (delta.Map, error) {
	requested := pick(identity, identityFields...)
	if len(requested) == 0 {
		return nil, ErrEmptyIdentity
	}

	var out delta.Map
	err := b.modify(caller, regID, func(reg *registration) error {
		current := pick(reg.user, identityFields...)
		if len(current) > 0 && !delta.EqualMaps(current, requested) {
			if !force {
				return ErrAlreadyPersonalized
			}
			reg.user = delta.Map{}
		}

		user := delta.Apply(reg.user, attributes)
		user = delta.Apply(user, requested)
		if _, ok := user[FieldType]; !ok {
			user[FieldType] = delta.String(UserTypeCustomer)
		}
		reg.user = user
		out = user.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().Str("func", "Backend.Personalize").
		Str("push_registration_id", regID).Bool("force", force).Msg("installation personalized")
	return out, nil
}

// Depersonalize unbinds the user from regID.
func (b *Backend) Depersonalize(ctx context.Context, caller Caller, regID string) error {
	return b.modify(caller, regID, func(reg *registration) error {
		reg.user = delta.Map{}
		return nil
	})
}

func (b *Backend) check() error {
	if !b.available.Load() {
		return ErrUnavailable
	}
	return nil
}

// modify runs fn on the registration of regID under the lock.
func (b *Backend) modify(caller Caller, regID string, fn func(reg *registration) error) error {
	if err := b.check(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	reg, err := b.lookupLocked(caller, regID)
	if err != nil {
		return err
	}
	return fn(reg)
}

func (b *Backend) lookupLocked(caller Caller, regID string) (*registration, error) {
	reg, ok := b.registrations[regID]
	if !ok || regID == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoRegistration, regID)
	}
	if caller.AppCode != "" && caller.AppCode != reg.appCode {
		return nil, fmt.Errorf("%w: %q", ErrNoRegistration, regID)
	}
	if caller.Subject != "" {
		if id, ok := reg.user[FieldExternalUserID].AsString(); ok && id != caller.Subject {
			return nil, fmt.Errorf("%w: token subject does not match the user", ErrUnauthorized)
		}
	}
	return reg, nil
}

func pick(m delta.Map, keys ...string) delta.Map {
	out := delta.Map{}
	for _, k := range keys {
		if v, ok := m[k]; ok && !v.IsNull() {
			out[k] = v.Clone()
		}
	}
	return out
}
