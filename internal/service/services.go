package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/adapter"
	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/queue"
	"github.com/MKhiriev/go-push-sync/internal/store"
	"github.com/MKhiriev/go-push-sync/internal/utils"
	"github.com/MKhiriev/go-push-sync/models"
)

const appCodeHashKey = "push-sync-application-code"

// Dependencies are the collaborators of an [Engine].
type Dependencies struct {
	Store    *store.ProfileStore
	Keychain store.Keychain
	Remote   adapter.RemoteAPI

	// Reachability is optional. Without it tasks never wait for the network.
	Reachability queue.Reachability
	// SystemData is optional. Without it no system data is sent.
	SystemData SystemDataProvider
	// Clock defaults to the real clock.
	Clock clockwork.Clock

	Subservices []Subservice
}

// Engine is the synchronization engine facade.
type Engine struct {
	installation   *InstallationService
	user           *UserService
	depersonalizer *Depersonalizer
	subservices    *Subservices

	store    *store.ProfileStore
	keychain store.Keychain
	appCode  string
	logger   *logger.Logger

	installationQueue *queue.Queue
	userQueue         *queue.Queue
}

// NewEngine wires the services together and starts their queues.
func NewEngine(cfg config.EngineConfig, deps Dependencies, log *logger.Logger) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	queueOpts := []queue.Opt{
		queue.WithClock(clock),
		queue.WithRetryClassifier(adapter.IsRetriable),
		queue.WithBackoff(cfg.Sync.RetryBackoff, cfg.Sync.MaxRetryBackoff),
		queue.WithLogger(log),
	}
	if deps.Reachability != nil {
		queueOpts = append(queueOpts, queue.WithReachability(deps.Reachability))
	}

	installationQueue := queue.New(string(models.ProfileInstallation), queueOpts...)
	userQueue := queue.New(string(models.ProfileUser), queueOpts...)

	policy := retryPolicy{limit: cfg.Sync.RetryLimit}
	subservices := NewSubservices(log, deps.Subservices...)

	e := &Engine{
		installation: &InstallationService{
			store:      deps.Store,
			keychain:   deps.Keychain,
			remote:     deps.Remote,
			queue:      installationQueue,
			systemData: deps.SystemData,
			clock:      clock,
			appCode:    cfg.App.Code,
			policy:     policy,
			logger:     log,
			expirer:    newExpirer(deps.Keychain, deps.Remote, installationQueue, cfg.App.Code, policy, log),
		},
		user: &UserService{
			store:   deps.Store,
			remote:  deps.Remote,
			queue:   userQueue,
			appCode: cfg.App.Code,
			policy:  policy,
			logger:  log,
		},
		depersonalizer: &Depersonalizer{
			store:        deps.Store,
			remote:       deps.Remote,
			queue:        installationQueue,
			subservices:  subservices,
			appCode:      cfg.App.Code,
			failureLimit: cfg.Sync.DepersonalizeFailureLimit,
			logger:       log,
		},
		subservices:       subservices,
		store:             deps.Store,
		keychain:          deps.Keychain,
		appCode:           cfg.App.Code,
		logger:            log,
		installationQueue: installationQueue,
		userQueue:         userQueue,
	}

	deps.Store.OnCurrentChange(e.handleCurrentChanges)
	return e
}

// Installation returns the installation service.
func (e *Engine) Installation() *InstallationService { return e.installation }

// User returns the user service.
func (e *Engine) User() *UserService { return e.user }

// Depersonalizer returns the depersonalization coordinator.
func (e *Engine) Depersonalizer() *Depersonalizer { return e.depersonalizer }

// Subservices returns the subservice registry.
func (e *Engine) Subservices() *Subservices { return e.subservices }

// Start prepares local state: data of a different application code is
// wiped, an interrupted depersonalization is completed and a pending one is
// resumed. The subservices learn the registration status they start with.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.checkApplicationCode(ctx); err != nil {
		return err
	}
	if err := e.depersonalizer.CompleteTransition(ctx); err != nil {
		return fmt.Errorf("complete depersonalization: %w", err)
	}
	if _, err := e.depersonalizer.ResumeIfPending(ctx); err != nil {
		return fmt.Errorf("resume depersonalization: %w", err)
	}
	if err := e.subservices.UpdateRegistrationEnabledStatus(ctx); err != nil {
		e.logger.Warn().Err(err).Str("func", "Engine.Start").Msg("subservices not updated")
	}
	return nil
}

// FetchFromServer fetches the installation.
func (e *Engine) FetchFromServer(ctx context.Context, userInitiated bool, onFinish func(error)) *queue.Ticket {
	return e.installation.FetchFromServer(ctx, userInitiated, onFinish)
}

// Save saves and synchronizes the installation.
func (e *Engine) Save(ctx context.Context, userInitiated bool, inst models.Installation, onFinish func(error)) *queue.Ticket {
	return e.installation.Save(ctx, userInitiated, inst, onFinish)
}

// SyncWithServer synchronizes the installation. A pending depersonalization
// is resumed first, so the sync runs once it resolved.
func (e *Engine) SyncWithServer(ctx context.Context, userInitiated bool, onFinish func(error)) *queue.Ticket {
	if _, err := e.depersonalizer.ResumeIfPending(ctx); err != nil {
		e.logger.Err(err).Str("func", "Engine.SyncWithServer").Msg("failed to check depersonalization status")
	}
	return e.installation.SyncWithServer(ctx, userInitiated, onFinish)
}

// Depersonalize detaches the user from the installation.
func (e *Engine) Depersonalize(ctx context.Context, userInitiated bool, onFinish DepersonalizeFunc) *DepersonalizeTicket {
	return e.depersonalizer.Depersonalize(ctx, userInitiated, onFinish)
}

// ResetRegistration replaces the registration of the installation.
func (e *Engine) ResetRegistration(ctx context.Context, userInitiated bool, onFinish func(error)) *queue.Ticket {
	return e.installation.ResetRegistration(ctx, userInitiated, onFinish)
}

// AppWillEnterForeground resumes a pending depersonalization and notifies
// the subservices.
func (e *Engine) AppWillEnterForeground(ctx context.Context) error {
	if _, err := e.depersonalizer.ResumeIfPending(ctx); err != nil {
		return fmt.Errorf("resume depersonalization: %w", err)
	}
	return e.subservices.AppWillEnterForeground(ctx)
}

// CancelAllOperations cancels every queued and running task.
func (e *Engine) CancelAllOperations() {
	e.installationQueue.CancelAll()
	e.userQueue.CancelAll()
}

// Close cancels everything and stops the queues.
func (e *Engine) Close() {
	e.installationQueue.Close()
	e.userQueue.Close()
}

// checkApplicationCode wipes all local data when the application code
// differs from the one the data was created with.
func (e *Engine) checkApplicationCode(ctx context.Context) error {
	hash := utils.HashString(e.appCode, appCodeHashKey)

	stored, err := e.keychain.Get(ctx, store.KeyApplicationCodeHash)
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return fmt.Errorf("read application code hash: %w", err)
	}
	if err == nil && stored != hash {
		e.logger.Warn().Str("func", "Engine.checkApplicationCode").Msg("application code changed, wiping local data")
		if err = e.store.ResetAll(ctx); err != nil {
			return fmt.Errorf("reset profiles: %w", err)
		}
		if err = e.keychain.Clear(ctx); err != nil {
			return fmt.Errorf("clear keychain: %w", err)
		}
	}
	if stored == hash {
		return nil
	}

	if err = e.keychain.Set(ctx, store.KeyApplicationCodeHash, hash); err != nil {
		return fmt.Errorf("store application code hash: %w", err)
	}
	return nil
}

// handleCurrentChanges tells the subservices when the registration status
// they depend on changed: the enabled flag or identity of the installation,
// or the depersonalization status.
func (e *Engine) handleCurrentChanges(ctx context.Context, t models.ProfileType, old, updated delta.Map) {
	if !registrationStatusChanged(t, old, updated) {
		return
	}

	if err := e.subservices.UpdateRegistrationEnabledStatus(ctx); err != nil {
		e.logger.Warn().Err(err).Str("func", "Engine.handleCurrentChanges").Msg("subservices not updated")
	}
}

func registrationStatusChanged(t models.ProfileType, old, updated delta.Map) bool {
	switch t {
	case models.ProfileInstallation:
		before, errOld := models.InstallationFromMap(old)
		after, errNew := models.InstallationFromMap(updated)
		if errOld != nil || errNew != nil {
			return false
		}
		return before.IsPushRegistrationEnabled != after.IsPushRegistrationEnabled || before.HasIdentity() != after.HasIdentity()
	case models.ProfileInternal:
		before, errOld := models.InternalDataFromMap(old)
		after, errNew := models.InternalDataFromMap(updated)
		if errOld != nil || errNew != nil {
			return false
		}
		return before.DepersonalizeStatus != after.DepersonalizeStatus
	}
	return false
}
