package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-push-sync/internal/adapter"
	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/queue"
	"github.com/MKhiriev/go-push-sync/internal/store"
	"github.com/MKhiriev/go-push-sync/models"
)

// UserService synchronizes the user profile attached to the installation.
type UserService struct {
	store   *store.ProfileStore
	remote  adapter.RemoteAPI
	queue   *queue.Queue
	appCode string
	policy  retryPolicy
	logger  *logger.Logger
}

// FetchFromServer enqueues a fetch of the user.
func (s *UserService) FetchFromServer(ctx context.Context, userInitiated bool, onFinish func(error)) *queue.Ticket {
	key := queue.Key{Type: taskFetch, Target: string(models.ProfileUser)}
	return s.queue.Enqueue(queue.NewTask(key, queue.Normal, s.fetch, s.policy.opts(userInitiated)...), onFinish)
}

// Save stores user as the dirty user and enqueues a sync.
func (s *UserService) Save(ctx context.Context, userInitiated bool, user models.User, onFinish func(error)) *queue.Ticket {
	key := queue.Key{Type: taskSync, Target: string(models.ProfileUser)}

	if err := guardProtectedData(ctx, s.store); err != nil {
		return queue.FinishedTicket(key, err, onFinish)
	}
	if err := s.store.SaveUser(ctx, models.SlotDirty, user); err != nil {
		s.logger.Err(err).Str("func", "UserService.Save").Msg("failed to save dirty user")
		return queue.FinishedTicket(key, fmt.Errorf("save user: %w", err), onFinish)
	}

	return s.SyncWithServer(ctx, userInitiated, onFinish)
}

// SyncWithServer enqueues a patch of the user with the pending local edits.
func (s *UserService) SyncWithServer(ctx context.Context, userInitiated bool, onFinish func(error)) *queue.Ticket {
	key := queue.Key{Type: taskSync, Target: string(models.ProfileUser)}
	return s.queue.Enqueue(queue.NewTask(key, queue.Normal, s.sync, s.policy.opts(userInitiated)...), onFinish)
}

// Personalize attaches the person matching identity to the installation and
// replaces the local user with the answer of the backend.
func (s *UserService) Personalize(ctx context.Context, userInitiated bool, identity models.UserIdentity, attributes *models.User, force bool, onFinish func(error)) *queue.Ticket {
	key := queue.Key{Type: taskPersonalize, Target: string(models.ProfileUser)}

	if identity.IsEmpty() {
		return queue.FinishedTicket(key, ErrEmptyUserIdentity, onFinish)
	}

	run := func(ctx context.Context) error {
		return s.personalize(ctx, identity, attributes, force)
	}
	return s.queue.Enqueue(queue.NewTask(key, queue.Normal, run, s.policy.opts(userInitiated)...), onFinish)
}

func (s *UserService) fetch(ctx context.Context) error {
	if err := guardProtectedData(ctx, s.store); err != nil {
		return err
	}
	regID, err := registrationID(ctx, s.store)
	if err != nil {
		return err
	}

	generation := s.store.Generation(models.ProfileUser)
	current, _, err := s.store.LoadPending(ctx, models.ProfileUser)
	if err != nil {
		return err
	}

	server, err := s.remote.FetchUser(ctx, s.appCode, regID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}

	confirmed, _, err := canonicalUser(server)
	if err != nil {
		return err
	}
	err = commitConfirmed(ctx, s.store, models.ProfileUser, generation, current, confirmed)
	return dropIfReset(ctx, err, "UserService.fetch")
}

func (s *UserService) sync(ctx context.Context) error {
	if err := guardProtectedData(ctx, s.store); err != nil {
		return err
	}

	generation := s.store.Generation(models.ProfileUser)
	current, dirty, err := s.store.LoadPending(ctx, models.ProfileUser)
	if err != nil {
		return err
	}
	patch := delta.Diff(current, dirty)
	if len(patch) == 0 {
		logger.FromContext(ctx).Debug().Str("func", "UserService.sync").Msg("user is up to date")
		return nil
	}

	regID, err := registrationID(ctx, s.store)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Debug().Str("func", "UserService.sync").Strs("fields", patch.Keys()).Msg("sending user patch")
	if err = s.remote.UpdateUser(ctx, s.appCode, regID, patch); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	confirmed, _, err := canonicalUser(dirty)
	if err != nil {
		return err
	}
	err = commitConfirmed(ctx, s.store, models.ProfileUser, generation, dirty, confirmed)
	return dropIfReset(ctx, err, "UserService.sync")
}

func (s *UserService) personalize(ctx context.Context, identity models.UserIdentity, attributes *models.User, force bool) error {
	if err := guardProtectedData(ctx, s.store); err != nil {
		return err
	}
	regID, err := registrationID(ctx, s.store)
	if err != nil {
		return err
	}

	generation := s.store.Generation(models.ProfileUser)
	identityMap, err := identity.ToMap()
	if err != nil {
		return err
	}
	var attributesMap delta.Map
	if attributes != nil {
		if attributesMap, err = attributes.ToMap(); err != nil {
			return err
		}
	}

	resp, err := s.remote.Personalize(ctx, s.appCode, regID, identityMap, attributesMap, force)
	if err != nil {
		return fmt.Errorf("personalize: %w", err)
	}

	confirmed, user, err := canonicalUser(resp)
	if err != nil {
		return err
	}
	if err = s.store.SaveAt(ctx, models.ProfileUser, models.SlotCurrent, generation, confirmed); err != nil {
		return dropIfReset(ctx, err, "UserService.personalize")
	}
	if err = s.store.SaveAt(ctx, models.ProfileUser, models.SlotDirty, generation, confirmed); err != nil {
		return dropIfReset(ctx, err, "UserService.personalize")
	}

	logger.FromContext(ctx).Info().Str("func", "UserService.personalize").
		Str("external_user_id", user.ExternalUserID).Msg("installation personalized")
	return nil
}
