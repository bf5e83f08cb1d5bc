package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/mock"
	"github.com/MKhiriev/go-push-sync/internal/queue"
	"github.com/MKhiriev/go-push-sync/internal/store"
	"github.com/MKhiriev/go-push-sync/internal/utils"
	"github.com/MKhiriev/go-push-sync/models"
)

const testAppCode = "app-code"

type testEnv struct {
	engine   *Engine
	store    *store.ProfileStore
	archive  store.Archive
	keychain store.Keychain
	remote   *mock.MockRemoteAPI
	clock    *clockwork.FakeClock
}

type envSetup struct {
	cfg      config.EngineConfig
	deps     Dependencies
	archive  store.Archive
	keychain store.Keychain
}

type envOpt func(s *envSetup)

func withSubservices(subs ...Subservice) envOpt {
	return func(s *envSetup) {
		s.deps.Subservices = subs
	}
}

func withSystemData(p SystemDataProvider) envOpt {
	return func(s *envSetup) {
		s.deps.SystemData = p
	}
}

// withStorage shares storage between engines, e.g. to simulate a restart.
func withStorage(archive store.Archive, keychain store.Keychain) envOpt {
	return func(s *envSetup) {
		s.archive = archive
		s.keychain = keychain
	}
}

func withFailureLimit(n int) envOpt {
	return func(s *envSetup) {
		s.cfg.Sync.DepersonalizeFailureLimit = n
	}
}

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		App: config.EngineApp{Code: testAppCode},
		Sync: config.EngineSync{
			RetryLimit:                2,
			RetryBackoff:              time.Second,
			MaxRetryBackoff:           4 * time.Second,
			DepersonalizeFailureLimit: 3,
		},
	}
}

// newTestEnv builds an engine over in-memory storage, a mocked backend and a
// fake clock.
func newTestEnv(t *testing.T, ctrl *gomock.Controller, opts ...envOpt) *testEnv {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	remote := mock.NewMockRemoteAPI(ctrl)

	setup := &envSetup{
		cfg:      testConfig(),
		deps:     Dependencies{Remote: remote, Clock: clock},
		archive:  store.NewMemoryArchive(),
		keychain: store.NewMemoryKeychain(),
	}
	for _, opt := range opts {
		opt(setup)
	}
	setup.deps.Store = store.NewProfileStore(setup.archive, logger.Nop())
	setup.deps.Keychain = setup.keychain

	engine := NewEngine(setup.cfg, setup.deps, logger.Nop())
	t.Cleanup(engine.Close)

	return &testEnv{
		engine:   engine,
		store:    setup.deps.Store,
		archive:  setup.archive,
		keychain: setup.keychain,
		remote:   remote,
		clock:    clock,
	}
}

func (e *testEnv) saveInstallation(t *testing.T, slot models.Slot, inst models.Installation) {
	t.Helper()
	require.NoError(t, e.store.SaveInstallation(context.Background(), slot, inst))
}

func (e *testEnv) registered(t *testing.T, id, token string) models.Installation {
	t.Helper()

	inst := models.EmptyInstallation()
	inst.PushRegistrationID = id
	inst.PushServiceToken = token
	e.saveInstallation(t, models.SlotCurrent, inst)
	e.saveInstallation(t, models.SlotDirty, inst)
	return inst
}

func wait(t *testing.T, ticket *queue.Ticket) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := ticket.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "ticket did not finish")
	return err
}

// ── Start ────────────────────────────────────────────────────────────────────

func TestEngine_Start_StoresApplicationCodeHash(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, ctrl)
	ctx := context.Background()

	require.NoError(t, env.engine.Start(ctx))

	hash, err := env.keychain.Get(ctx, store.KeyApplicationCodeHash)
	require.NoError(t, err)
	assert.Equal(t, utils.HashString(testAppCode, appCodeHashKey), hash)
}

func TestEngine_Start_WipesDataOfOtherApplication(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, ctrl)
	ctx := context.Background()

	env.registered(t, "reg-1", "token")
	require.NoError(t, env.keychain.Set(ctx, store.KeyLastKnownIdentity, "reg-1"))
	require.NoError(t, env.keychain.Set(ctx, store.KeyApplicationCodeHash, utils.HashString("other-app", appCodeHashKey)))

	require.NoError(t, env.engine.Start(ctx))

	inst, err := env.store.LoadInstallation(ctx, models.SlotCurrent)
	require.NoError(t, err)
	assert.False(t, inst.HasIdentity())

	_, err = env.keychain.Get(ctx, store.KeyLastKnownIdentity)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)

	hash, err := env.keychain.Get(ctx, store.KeyApplicationCodeHash)
	require.NoError(t, err)
	assert.Equal(t, utils.HashString(testAppCode, appCodeHashKey), hash)
}

func TestEngine_Start_KeepsDataOfSameApplication(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, ctrl)
	ctx := context.Background()

	env.registered(t, "reg-1", "token")
	require.NoError(t, env.keychain.Set(ctx, store.KeyApplicationCodeHash, utils.HashString(testAppCode, appCodeHashKey)))

	require.NoError(t, env.engine.Start(ctx))

	inst, err := env.store.LoadInstallation(ctx, models.SlotCurrent)
	require.NoError(t, err)
	assert.Equal(t, "reg-1", inst.PushRegistrationID)
}

func TestEngine_Start_CompletesInterruptedDepersonalization(t *testing.T) {
	ctrl := gomock.NewController(t)
	sub := mock.NewMockSubservice(ctrl)
	sub.EXPECT().Name().Return("inbox").AnyTimes()

	env := newTestEnv(t, ctrl, withSubservices(sub))
	ctx := context.Background()

	sub.EXPECT().UpdateRegistrationEnabledStatus(gomock.Any()).Return(nil)
	_, err := env.store.UpdateInternal(ctx, func(d *models.InternalData) error {
		d.DepersonalizeStatus = models.DepersonalizationSuccess
		return nil
	})
	require.NoError(t, err)

	// success to undefined, then the status Start hands out
	sub.EXPECT().UpdateRegistrationEnabledStatus(gomock.Any()).Return(nil).Times(2)
	require.NoError(t, env.engine.Start(ctx))

	status, err := env.engine.Depersonalizer().CurrentStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DepersonalizationUndefined, status)
}

func TestEngine_Start_ResumesPendingDepersonalization(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, ctrl)
	ctx := context.Background()

	env.registered(t, "reg-1", "token")
	_, err := env.store.UpdateInternal(ctx, func(d *models.InternalData) error {
		d.DepersonalizeStatus = models.DepersonalizationPending
		d.DepersonalizeFailCounter = 1
		return nil
	})
	require.NoError(t, err)

	env.remote.EXPECT().Depersonalize(gomock.Any(), testAppCode, "reg-1").Return(nil).Times(1)

	require.NoError(t, env.engine.Start(ctx))

	require.Eventually(t, func() bool {
		status, err := env.engine.Depersonalizer().CurrentStatus(ctx)
		return err == nil && status == models.DepersonalizationUndefined
	}, 5*time.Second, 10*time.Millisecond)
}

// ── Registration status ──────────────────────────────────────────────────────

func TestEngine_NotifiesSubservicesOnRegistrationChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	sub := mock.NewMockSubservice(ctrl)
	sub.EXPECT().Name().Return("geo").AnyTimes()
	sub.EXPECT().UpdateRegistrationEnabledStatus(gomock.Any()).Return(nil).Times(2)

	env := newTestEnv(t, ctrl, withSubservices(sub))

	inst := models.EmptyInstallation()
	inst.PushRegistrationID = "reg-1"
	env.saveInstallation(t, models.SlotCurrent, inst) // identity appeared

	inst.PushServiceToken = "token"
	env.saveInstallation(t, models.SlotCurrent, inst) // no status change

	inst.IsPushRegistrationEnabled = false
	env.saveInstallation(t, models.SlotCurrent, inst) // disabled

	env.saveInstallation(t, models.SlotDirty, models.EmptyInstallation())
}

func TestEngine_NotifiesSubservicesOnDepersonalizationStatusChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	sub := mock.NewMockSubservice(ctrl)
	sub.EXPECT().Name().Return("chat").AnyTimes()
	sub.EXPECT().UpdateRegistrationEnabledStatus(gomock.Any()).Return(nil).Times(2)

	env := newTestEnv(t, ctrl, withSubservices(sub))
	ctx := context.Background()

	setStatus := func(status models.DepersonalizationStatus, failures int) {
		_, err := env.store.UpdateInternal(ctx, func(d *models.InternalData) error {
			d.DepersonalizeStatus = status
			d.DepersonalizeFailCounter = failures
			return nil
		})
		require.NoError(t, err)
	}

	setStatus(models.DepersonalizationPending, 1)   // suspended
	setStatus(models.DepersonalizationPending, 2)   // no status change
	setStatus(models.DepersonalizationUndefined, 0) // resumed

	_, err := env.store.UpdateInternal(ctx, func(d *models.InternalData) error {
		d.SystemDataHash = "abc"
		return nil
	})
	require.NoError(t, err)
}

func TestEngine_Start_NotifiesSubservicesOfRegisteredInstallation(t *testing.T) {
	ctx := context.Background()
	archive := store.NewMemoryArchive()
	keychain := store.NewMemoryKeychain()

	first := newTestEnv(t, gomock.NewController(t), withStorage(archive, keychain))
	first.registered(t, "reg-1", "token")
	require.NoError(t, first.engine.Start(ctx))
	first.engine.Close()

	// after a restart nothing changes, the subservices still learn the status
	ctrl := gomock.NewController(t)
	sub := mock.NewMockSubservice(ctrl)
	sub.EXPECT().Name().Return("inbox").AnyTimes()
	sub.EXPECT().UpdateRegistrationEnabledStatus(gomock.Any()).Return(nil).Times(1)

	second := newTestEnv(t, ctrl, withStorage(archive, keychain), withSubservices(sub))
	require.NoError(t, second.engine.Start(ctx))
}

func TestInstallationService_IsRegistrationEnabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, ctrl)
	ctx := context.Background()
	svc := env.engine.Installation()

	enabled, err := svc.IsRegistrationEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled, "not registered yet")

	env.registered(t, "reg-1", "token")
	enabled, err = svc.IsRegistrationEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	_, err = env.store.UpdateInternal(ctx, func(d *models.InternalData) error {
		d.DepersonalizeStatus = models.DepersonalizationPending
		return nil
	})
	require.NoError(t, err)
	enabled, err = svc.IsRegistrationEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled, "pending depersonalization suspends subservices")
}

// ── Cancellation ─────────────────────────────────────────────────────────────

func TestEngine_CancelAllOperations(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, ctrl)

	env.registered(t, "reg-1", "token")

	started := make(chan struct{})
	env.remote.EXPECT().FetchInstance(gomock.Any(), testAppCode, "reg-1").
		DoAndReturn(func(ctx context.Context, _, _ string) (delta.Map, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(1)

	running := env.engine.FetchFromServer(context.Background(), false, nil)
	<-started
	queued := env.engine.SyncWithServer(context.Background(), false, nil)

	env.engine.CancelAllOperations()

	assert.ErrorIs(t, wait(t, running), queue.ErrCancelled)
	assert.ErrorIs(t, wait(t, queued), queue.ErrCancelled)
}
