package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/adapter"
	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/queue"
	"github.com/MKhiriev/go-push-sync/internal/store"
	"github.com/MKhiriev/go-push-sync/internal/utils"
	"github.com/MKhiriev/go-push-sync/models"
)

// InstallationService synchronizes the installation profile.
type InstallationService struct {
	store      *store.ProfileStore
	keychain   store.Keychain
	remote     adapter.RemoteAPI
	queue      *queue.Queue
	systemData SystemDataProvider
	clock      clockwork.Clock
	appCode    string
	policy     retryPolicy
	logger     *logger.Logger

	expirer *expirer
}

// FetchFromServer enqueues a fetch of the installation. The server view
// becomes current and pending local edits are re-applied on top of it.
func (s *InstallationService) FetchFromServer(ctx context.Context, userInitiated bool, onFinish func(error)) *queue.Ticket {
	key := queue.Key{Type: taskFetch, Target: string(models.ProfileInstallation)}
	return s.queue.Enqueue(queue.NewTask(key, queue.Normal, s.fetch, s.policy.opts(userInitiated)...), onFinish)
}

// Save stores inst as the dirty installation and enqueues a sync.
func (s *InstallationService) Save(ctx context.Context, userInitiated bool, inst models.Installation, onFinish func(error)) *queue.Ticket {
	key := queue.Key{Type: taskSync, Target: string(models.ProfileInstallation)}

	if err := guardProtectedData(ctx, s.store); err != nil {
		return queue.FinishedTicket(key, err, onFinish)
	}
	if err := s.store.SaveInstallation(ctx, models.SlotDirty, inst); err != nil {
		s.logger.Err(err).Str("func", "InstallationService.Save").Msg("failed to save dirty installation")
		return queue.FinishedTicket(key, fmt.Errorf("save installation: %w", err), onFinish)
	}

	return s.SyncWithServer(ctx, userInitiated, onFinish)
}

// SyncWithServer enqueues a create or update of the installation. Calls
// made while a sync is queued are merged into it.
func (s *InstallationService) SyncWithServer(ctx context.Context, userInitiated bool, onFinish func(error)) *queue.Ticket {
	key := queue.Key{Type: taskSync, Target: string(models.ProfileInstallation)}
	return s.queue.Enqueue(queue.NewTask(key, queue.Normal, s.sync, s.policy.opts(userInitiated)...), onFinish)
}

// ResetRegistration forgets the registration id, keeping the push token, and
// creates a new registration. The old one is expired afterwards.
func (s *InstallationService) ResetRegistration(ctx context.Context, userInitiated bool, onFinish func(error)) *queue.Ticket {
	key := queue.Key{Type: taskReset, Target: string(models.ProfileInstallation)}
	return s.queue.Enqueue(queue.NewTask(key, queue.Normal, s.resetRegistration, s.policy.opts(userInitiated)...), onFinish)
}

// IsRegistrationEnabled implements [RegistrationStatusSource].
func (s *InstallationService) IsRegistrationEnabled(ctx context.Context) (bool, error) {
	internal, err := s.store.LoadInternal(ctx)
	if err != nil {
		return false, err
	}
	if internal.DepersonalizeStatus == models.DepersonalizationPending {
		return false, nil
	}

	inst, err := s.store.LoadInstallation(ctx, models.SlotCurrent)
	if err != nil {
		return false, err
	}
	return inst.HasIdentity() && inst.IsPushRegistrationEnabled, nil
}

func (s *InstallationService) fetch(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := guardProtectedData(ctx, s.store); err != nil {
		return err
	}
	generation := s.store.Generation(models.ProfileInstallation)
	current, dirty, err := s.store.LoadPending(ctx, models.ProfileInstallation)
	if err != nil {
		return err
	}
	inst, err := models.InstallationFromMap(current)
	if err != nil {
		return err
	}
	if !inst.HasIdentity() {
		return ErrRegistrationUnavailable
	}

	server, err := s.remote.FetchInstance(ctx, s.appCode, inst.PushRegistrationID)
	if err != nil {
		return s.handleRegistrationError(ctx, err)
	}

	confirmed, _, err := canonicalInstallation(delta.Apply(current, server))
	if err != nil {
		return err
	}
	pending := delta.Diff(current, dirty)
	if err = commitConfirmed(ctx, s.store, models.ProfileInstallation, generation, current, confirmed); err != nil {
		return err
	}
	if len(pending) > 0 {
		log.Debug().Str("func", "InstallationService.fetch").Strs("pending", pending.Keys()).Msg("local edits kept on top of server state")
	}

	return nil
}

func (s *InstallationService) sync(ctx context.Context) error {
	if err := guardProtectedData(ctx, s.store); err != nil {
		return err
	}
	return s.syncInstallation(ctx, false)
}

func (s *InstallationService) resetRegistration(ctx context.Context) error {
	if err := guardProtectedData(ctx, s.store); err != nil {
		return err
	}
	if err := s.clearIdentity(ctx); err != nil {
		return err
	}
	return s.syncInstallation(ctx, true)
}

// syncInstallation creates the installation when there is no identity and
// updates it otherwise. recovered is set once a lost registration was
// cleared, so the recovery path runs at most once per task.
func (s *InstallationService) syncInstallation(ctx context.Context, recovered bool) error {
	log := logger.FromContext(ctx)

	generation := s.store.Generation(models.ProfileInstallation)
	current, dirty, err := s.store.LoadPending(ctx, models.ProfileInstallation)
	if err != nil {
		return err
	}
	curInst, err := models.InstallationFromMap(current)
	if err != nil {
		return err
	}

	sysData, sysHash, err := s.pendingSystemData(ctx)
	if err != nil {
		return err
	}

	if !curInst.HasIdentity() {
		return s.create(ctx, generation, dirty, sysData, sysHash)
	}

	patch := delta.Redact(delta.Diff(current, dirty), readOnlyInstallationFields...)
	for k, v := range sysData {
		patch[k] = v
	}
	if len(patch) == 0 {
		log.Debug().Str("func", "InstallationService.sync").Msg("installation is up to date")
		return s.expirer.expireIfNeeded(ctx, curInst.PushRegistrationID)
	}

	err = s.remote.UpdateInstance(ctx, s.appCode, curInst.PushRegistrationID, patch)
	if errors.Is(err, adapter.ErrNoSuchRegistration) && !recovered {
		log.Warn().Err(err).Str("func", "InstallationService.sync").Msg("registration lost, creating a new one")
		if err = s.clearIdentity(ctx); err != nil {
			return err
		}
		return s.syncInstallation(ctx, true)
	}
	if err != nil {
		return fmt.Errorf("update installation: %w", err)
	}

	confirmed, _, err := canonicalInstallation(dirty)
	if err != nil {
		return err
	}
	for _, field := range readOnlyInstallationFields {
		if v, ok := current[field]; ok {
			confirmed[field] = v
		}
	}
	if err = commitConfirmed(ctx, s.store, models.ProfileInstallation, generation, dirty, confirmed); err != nil {
		return err
	}
	if err = s.commitSystemData(ctx, sysHash, false); err != nil {
		return err
	}

	return s.expirer.expireIfNeeded(ctx, curInst.PushRegistrationID)
}

func (s *InstallationService) create(ctx context.Context, generation uint64, dirty delta.Map, sysData delta.Map, sysHash string) error {
	dirtyInst, err := models.InstallationFromMap(dirty)
	if err != nil {
		return err
	}
	if dirtyInst.PushServiceToken == "" {
		return ErrMissingPushServiceToken
	}

	body := delta.Redact(dirty, readOnlyInstallationFields...)
	for k, v := range sysData {
		body[k] = v
	}

	resp, err := s.remote.CreateInstance(ctx, s.appCode, body)
	if err != nil {
		return fmt.Errorf("create installation: %w", err)
	}

	confirmed, inst, err := canonicalInstallation(delta.Apply(dirty, resp))
	if err != nil {
		return err
	}
	if !inst.HasIdentity() {
		return ErrMissingIdentityInResponse
	}
	if err = commitConfirmed(ctx, s.store, models.ProfileInstallation, generation, dirty, confirmed); err != nil {
		return err
	}
	if err = s.commitSystemData(ctx, sysHash, true); err != nil {
		return err
	}

	logger.FromContext(ctx).Info().Str("func", "InstallationService.create").
		Str("push_registration_id", inst.PushRegistrationID).Msg("installation created")
	return s.expirer.expireIfNeeded(ctx, inst.PushRegistrationID)
}

// pendingSystemData returns the system data to attach to the next request
// and its fingerprint. The map is empty when nothing changed.
func (s *InstallationService) pendingSystemData(ctx context.Context) (delta.Map, string, error) {
	if s.systemData == nil {
		return delta.Map{}, "", nil
	}

	sd, err := s.systemData.SystemData(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("collect system data: %w", err)
	}
	hash, err := utils.Fingerprint(sd)
	if err != nil {
		return nil, "", err
	}

	internal, err := s.store.LoadInternal(ctx)
	if err != nil {
		return nil, "", err
	}
	if internal.SystemDataHash == hash {
		return delta.Map{}, hash, nil
	}

	m, err := sd.ToMap()
	if err != nil {
		return nil, "", err
	}
	return m, hash, nil
}

func (s *InstallationService) commitSystemData(ctx context.Context, hash string, created bool) error {
	_, err := s.store.UpdateInternal(ctx, func(d *models.InternalData) error {
		if hash != "" {
			d.SystemDataHash = hash
		}
		if created {
			d.RegistrationDate = s.clock.Now().UTC().Format(time.RFC3339)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save internal data: %w", err)
	}
	return nil
}

// clearIdentity drops the registration id from both slots and forgets the
// system data fingerprint so the next create carries it again.
func (s *InstallationService) clearIdentity(ctx context.Context) error {
	for _, slot := range []models.Slot{models.SlotCurrent, models.SlotDirty} {
		_, err := s.store.Update(ctx, models.ProfileInstallation, slot, func(old delta.Map) (delta.Map, error) {
			if old == nil && slot == models.SlotDirty {
				return nil, errSkip
			}
			return delta.Redact(old, readOnlyInstallationFields...), nil
		})
		if err != nil && !errors.Is(err, errSkip) {
			return fmt.Errorf("clear registration id: %w", err)
		}
	}

	_, err := s.store.UpdateInternal(ctx, func(d *models.InternalData) error {
		d.SystemDataHash = ""
		return nil
	})
	return err
}

// handleRegistrationError clears a registration the backend no longer
// knows, so the next sync creates a new one.
func (s *InstallationService) handleRegistrationError(ctx context.Context, err error) error {
	if !errors.Is(err, adapter.ErrNoSuchRegistration) {
		return err
	}
	if clearErr := s.clearIdentity(ctx); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return err
}

// errSkip aborts a store update without writing.
var errSkip = errors.New("skip")
