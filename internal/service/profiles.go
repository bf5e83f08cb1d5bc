package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/queue"
	"github.com/MKhiriev/go-push-sync/internal/store"
	"github.com/MKhiriev/go-push-sync/models"
)

// Task types used as queue keys.
const (
	taskFetch         = "fetch"
	taskSync          = "sync"
	taskReset         = "reset-registration"
	taskExpire        = "expire"
	taskPersonalize   = "personalize"
	taskDepersonalize = "depersonalize"
)

// Server-owned installation fields that are never sent back.
var readOnlyInstallationFields = []string{
	models.FieldPushRegistrationID,
	models.FieldRegistrationDate,
}

type retryPolicy struct {
	limit int
}

// opts returns the queue options of a task. User-initiated tasks fail fast:
// no retries and no reachability waits.
func (p retryPolicy) opts(userInitiated bool) []queue.TaskOpt {
	if userInitiated {
		return []queue.TaskOpt{queue.WithRetryLimit(0), queue.WaitForReachability(false)}
	}
	return []queue.TaskOpt{queue.WithRetryLimit(p.limit), queue.WaitForReachability(true)}
}

func canonicalInstallation(m delta.Map) (delta.Map, models.Installation, error) {
	inst, err := models.InstallationFromMap(m)
	if err != nil {
		return nil, models.Installation{}, fmt.Errorf("decode installation: %w", err)
	}
	out, err := inst.ToMap()
	if err != nil {
		return nil, models.Installation{}, err
	}
	return out, inst, nil
}

func canonicalUser(m delta.Map) (delta.Map, models.User, error) {
	user, err := models.UserFromMap(m)
	if err != nil {
		return nil, models.User{}, fmt.Errorf("decode user: %w", err)
	}
	out, err := user.ToMap()
	if err != nil {
		return nil, models.User{}, err
	}
	return out, user, nil
}

// commitConfirmed stores confirmed as the current snapshot of t and rebases
// the dirty slot on it. Edits saved after used was read stay pending.
// Nothing is written when t was reset after generation was read; the
// returned error then matches [store.ErrProfileReset].
func commitConfirmed(ctx context.Context, st *store.ProfileStore, t models.ProfileType, generation uint64, used, confirmed delta.Map) error {
	if err := st.SaveAt(ctx, t, models.SlotCurrent, generation, confirmed); err != nil {
		return fmt.Errorf("save current %s: %w", t, err)
	}

	_, err := st.UpdateAt(ctx, t, models.SlotDirty, generation, func(dirtyNow delta.Map) (delta.Map, error) {
		if dirtyNow == nil {
			return confirmed, nil
		}
		return delta.Apply(confirmed, delta.Diff(used, dirtyNow)), nil
	})
	if err != nil {
		return fmt.Errorf("rebase dirty %s: %w", t, err)
	}
	return nil
}

// dropIfReset turns a commit rejected because the profile was wiped in the
// meantime into success. The wipe wins over the answer of the backend.
func dropIfReset(ctx context.Context, err error, fn string) error {
	if !errors.Is(err, store.ErrProfileReset) {
		return err
	}
	logger.FromContext(ctx).Info().Err(err).Str("func", fn).Msg("profile wiped while the request was in flight, answer dropped")
	return nil
}

// guardProtectedData fails while a depersonalization is pending.
func guardProtectedData(ctx context.Context, st *store.ProfileStore) error {
	internal, err := st.LoadInternal(ctx)
	if err != nil {
		return fmt.Errorf("load internal data: %w", err)
	}
	if internal.DepersonalizeStatus == models.DepersonalizationPending {
		return ErrProtectedDataUnavailable
	}
	return nil
}

// registrationID returns the confirmed push registration id.
func registrationID(ctx context.Context, st *store.ProfileStore) (string, error) {
	inst, err := st.LoadInstallation(ctx, models.SlotCurrent)
	if err != nil {
		return "", fmt.Errorf("load installation: %w", err)
	}
	if !inst.HasIdentity() {
		return "", ErrRegistrationUnavailable
	}
	return inst.PushRegistrationID, nil
}
