package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/models"
)

// ── helpers ───────────────────────────────────────────────────────────────────

// failingArchive wraps an archive and fails the selected operations.
type failingArchive struct {
	Archive
	failGet, failPut, failDelete bool
	gets                         int
	mu                           sync.Mutex
}

func (f *failingArchive) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	f.gets++
	f.mu.Unlock()
	if f.failGet {
		return nil, errors.New("disk unavailable")
	}
	return f.Archive.Get(ctx, key)
}

func (f *failingArchive) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.Archive.Put(ctx, key, value)
}

func (f *failingArchive) Delete(ctx context.Context, keys ...string) error {
	if f.failDelete {
		return errors.New("disk unavailable")
	}
	return f.Archive.Delete(ctx, keys...)
}

func newTestStore() (*ProfileStore, Archive) {
	archive := NewMemoryArchive()
	return NewProfileStore(archive, logger.Nop()), archive
}

// ── Load / Save ──────────────────────────────────────────────────────────────

func TestProfileStore_LoadEmpty(t *testing.T) {
	s, _ := newTestStore()

	m, err := s.Load(context.Background(), models.ProfileUser, models.SlotCurrent)
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)

	_, exists, err := s.Lookup(context.Background(), models.ProfileUser, models.SlotDirty)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProfileStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s, archive := newTestStore()
	saved := delta.Map{"pushRegistrationId": delta.String("abc"), "customAttributes": delta.Object(delta.Map{"a": delta.Number(1)})}

	require.NoError(t, s.Save(ctx, models.ProfileInstallation, models.SlotCurrent, saved))

	got, err := s.Load(ctx, models.ProfileInstallation, models.SlotCurrent)
	require.NoError(t, err)
	assert.True(t, delta.EqualMaps(saved, got))

	// a fresh store over the same archive sees the same snapshot
	reopened := NewProfileStore(archive, logger.Nop())
	got, err = reopened.Load(ctx, models.ProfileInstallation, models.SlotCurrent)
	require.NoError(t, err)
	assert.True(t, delta.EqualMaps(saved, got))
}

func TestProfileStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	saved := delta.Map{"a": delta.Object(delta.Map{"b": delta.Number(1)})}
	require.NoError(t, s.Save(ctx, models.ProfileUser, models.SlotDirty, saved))

	saved["a"].AsMap()["b"] = delta.Number(2)
	got, err := s.Load(ctx, models.ProfileUser, models.SlotDirty)
	require.NoError(t, err)
	got["a"].AsMap()["b"] = delta.Number(3)

	again, err := s.Load(ctx, models.ProfileUser, models.SlotDirty)
	require.NoError(t, err)
	n, _ := again["a"].AsMap()["b"].AsNumber()
	assert.Equal(t, float64(1), n)
}

func TestProfileStore_LoadUsesCache(t *testing.T) {
	ctx := context.Background()
	archive := &failingArchive{Archive: NewMemoryArchive()}
	s := NewProfileStore(archive, logger.Nop())

	for i := 0; i < 3; i++ {
		_, err := s.Load(ctx, models.ProfileUser, models.SlotCurrent)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, archive.gets)
}

func TestProfileStore_ArchiveFailureLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	archive := &failingArchive{Archive: NewMemoryArchive()}
	s := NewProfileStore(archive, logger.Nop())
	before := delta.Map{"firstName": delta.String("Ann")}
	require.NoError(t, s.Save(ctx, models.ProfileUser, models.SlotDirty, before))

	archive.failPut = true
	err := s.Save(ctx, models.ProfileUser, models.SlotDirty, delta.Map{"firstName": delta.String("Bob")})
	require.Error(t, err)

	got, err := s.Load(ctx, models.ProfileUser, models.SlotDirty)
	require.NoError(t, err)
	assert.True(t, delta.EqualMaps(before, got))
}

func TestProfileStore_LoadArchiveError(t *testing.T) {
	archive := &failingArchive{Archive: NewMemoryArchive(), failGet: true}
	s := NewProfileStore(archive, logger.Nop())

	_, err := s.Load(context.Background(), models.ProfileUser, models.SlotCurrent)
	assert.Error(t, err)
}

func TestProfileStore_CorruptedSnapshot(t *testing.T) {
	ctx := context.Background()
	archive := NewMemoryArchive()
	require.NoError(t, archive.Put(ctx, "current-user", []byte(`"not a map"`)))
	s := NewProfileStore(archive, logger.Nop())

	_, err := s.Load(ctx, models.ProfileUser, models.SlotCurrent)
	assert.ErrorIs(t, err, ErrCorruptedSnapshot)
}

// TestProfileStore_NoTornReads saves snapshots whose fields always carry the
// same value while readers check that every observed snapshot is consistent.
func TestProfileStore_NoTornReads(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	snapshot := func(i int) delta.Map {
		v := delta.String(fmt.Sprint(i))
		return delta.Map{"a": v, "b": v, "nested": delta.Object(delta.Map{"c": v})}
	}
	require.NoError(t, s.Save(ctx, models.ProfileUser, models.SlotDirty, snapshot(0)))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.NoError(t, s.Save(ctx, models.ProfileUser, models.SlotDirty, snapshot(w*1000+i)))
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				m, err := s.Load(ctx, models.ProfileUser, models.SlotDirty)
				if !assert.NoError(t, err) {
					return
				}
				a, _ := m["a"].AsString()
				b, _ := m["b"].AsString()
				c, _ := m["nested"].AsMap()["c"].AsString()
				assert.Equal(t, a, b)
				assert.Equal(t, a, c)
			}
		}()
	}
	wg.Wait()
}

// ── Update ───────────────────────────────────────────────────────────────────

func TestProfileStore_UpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateInternal(ctx, func(d *models.InternalData) error {
				d.BadgeNumber++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	d, err := s.LoadInternal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, d.BadgeNumber)
}

func TestProfileStore_UpdateErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.Update(ctx, models.ProfileUser, models.SlotDirty, func(delta.Map) (delta.Map, error) {
		return nil, assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, exists, err := s.Lookup(ctx, models.ProfileUser, models.SlotDirty)
	require.NoError(t, err)
	assert.False(t, exists)
}

// ── Reset ────────────────────────────────────────────────────────────────────

func TestProfileStore_Reset(t *testing.T) {
	ctx := context.Background()
	s, archive := newTestStore()
	require.NoError(t, s.Save(ctx, models.ProfileUser, models.SlotCurrent, delta.Map{"a": delta.Number(1)}))
	require.NoError(t, s.Save(ctx, models.ProfileUser, models.SlotDirty, delta.Map{"a": delta.Number(2)}))
	require.NoError(t, s.Save(ctx, models.ProfileInstallation, models.SlotCurrent, delta.Map{"b": delta.Number(1)}))

	require.NoError(t, s.Reset(ctx, models.ProfileUser))

	for _, slot := range []models.Slot{models.SlotCurrent, models.SlotDirty} {
		m, exists, err := s.Lookup(ctx, models.ProfileUser, slot)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Nil(t, m)

		_, err = archive.Get(ctx, models.StorageKey(models.ProfileUser, slot))
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	}

	inst, err := s.Load(ctx, models.ProfileInstallation, models.SlotCurrent)
	require.NoError(t, err)
	assert.Len(t, inst, 1)
}

func TestProfileStore_ResetFailure(t *testing.T) {
	ctx := context.Background()
	archive := &failingArchive{Archive: NewMemoryArchive()}
	s := NewProfileStore(archive, logger.Nop())
	require.NoError(t, s.Save(ctx, models.ProfileUser, models.SlotCurrent, delta.Map{"a": delta.Number(1)}))

	archive.failDelete = true
	require.Error(t, s.Reset(ctx, models.ProfileUser))

	m, err := s.Load(ctx, models.ProfileUser, models.SlotCurrent)
	require.NoError(t, err)
	assert.Len(t, m, 1)
}

func TestProfileStore_ResetAll(t *testing.T) {
	ctx := context.Background()
	s, archive := newTestStore()
	require.NoError(t, archive.Put(ctx, "session-counters", []byte(`{}`)))
	for _, pt := range models.ProfileTypes {
		require.NoError(t, s.Save(ctx, pt, models.SlotCurrent, delta.Map{"x": delta.Bool(true)}))
	}

	require.NoError(t, s.ResetAll(ctx))

	for _, pt := range models.ProfileTypes {
		m, err := s.Load(ctx, pt, models.SlotCurrent)
		require.NoError(t, err)
		assert.Empty(t, m)
	}
	_, err := archive.Get(ctx, "session-counters")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestProfileStore_UpdateAtRejectsWritesAfterReset(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	require.NoError(t, s.Save(ctx, models.ProfileUser, models.SlotCurrent, delta.Map{"firstName": delta.String("Ann")}))

	gen := s.Generation(models.ProfileUser)
	installationGen := s.Generation(models.ProfileInstallation)
	require.NoError(t, s.Reset(ctx, models.ProfileUser))
	assert.Equal(t, gen+1, s.Generation(models.ProfileUser))

	err := s.SaveAt(ctx, models.ProfileUser, models.SlotCurrent, gen, delta.Map{"firstName": delta.String("Ann")})
	assert.ErrorIs(t, err, ErrProfileReset)

	_, exists, err := s.Lookup(ctx, models.ProfileUser, models.SlotCurrent)
	require.NoError(t, err)
	assert.False(t, exists, "a write against a stale generation must not resurrect the profile")

	// other profile types keep their generation
	require.NoError(t, s.SaveAt(ctx, models.ProfileInstallation, models.SlotCurrent, installationGen, delta.Map{"b": delta.Number(1)}))
	require.NoError(t, s.SaveAt(ctx, models.ProfileUser, models.SlotCurrent, s.Generation(models.ProfileUser), delta.Map{}))
}

func TestProfileStore_ResetAllBumpsEveryGeneration(t *testing.T) {
	s, _ := newTestStore()
	before := make(map[models.ProfileType]uint64)
	for _, pt := range models.ProfileTypes {
		before[pt] = s.Generation(pt)
	}

	require.NoError(t, s.ResetAll(context.Background()))

	for _, pt := range models.ProfileTypes {
		assert.Greater(t, s.Generation(pt), before[pt], pt)
	}
}

// ── Observers ────────────────────────────────────────────────────────────────

func TestProfileStore_OnCurrentChange(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	type call struct {
		t        models.ProfileType
		old, new delta.Map
	}
	var calls []call
	s.OnCurrentChange(func(_ context.Context, pt models.ProfileType, old, updated delta.Map) {
		calls = append(calls, call{pt, old, updated})
	})

	require.NoError(t, s.Save(ctx, models.ProfileInternal, models.SlotCurrent, delta.Map{"depersonalizeStatus": delta.String("pending")}))
	require.NoError(t, s.Save(ctx, models.ProfileInternal, models.SlotDirty, delta.Map{"ignored": delta.Bool(true)}))
	require.NoError(t, s.Save(ctx, models.ProfileInternal, models.SlotCurrent, delta.Map{"depersonalizeStatus": delta.String("undefined")}))
	require.NoError(t, s.Reset(ctx, models.ProfileInternal))
	require.NoError(t, s.Reset(ctx, models.ProfileInternal))

	require.Len(t, calls, 3)
	assert.Nil(t, calls[0].old)
	status, _ := calls[1].old["depersonalizeStatus"].AsString()
	assert.Equal(t, "pending", status)
	status, _ = calls[1].new["depersonalizeStatus"].AsString()
	assert.Equal(t, "undefined", status)
	assert.Nil(t, calls[2].new)
}

// ── Typed helpers ────────────────────────────────────────────────────────────

func TestProfileStore_TypedHelpers(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	inst, err := s.LoadInstallation(ctx, models.SlotCurrent)
	require.NoError(t, err)
	assert.Equal(t, models.EmptyInstallation(), inst)

	inst.PushRegistrationID = "reg-1"
	inst.CustomAttributes = map[string]any{"tier": "gold"}
	require.NoError(t, s.SaveInstallation(ctx, models.SlotCurrent, inst))

	got, err := s.LoadInstallation(ctx, models.SlotCurrent)
	require.NoError(t, err)
	assert.Equal(t, "reg-1", got.PushRegistrationID)
	assert.Equal(t, "gold", got.CustomAttributes["tier"])

	user := models.User{ExternalUserID: "ext-1", Emails: []string{"a@example.com"}}
	require.NoError(t, s.SaveUser(ctx, models.SlotDirty, user))
	gotUser, err := s.LoadUser(ctx, models.SlotDirty)
	require.NoError(t, err)
	assert.Equal(t, user.ExternalUserID, gotUser.ExternalUserID)
	assert.Equal(t, user.Emails, gotUser.Emails)

	d, err := s.LoadInternal(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DepersonalizationUndefined, d.DepersonalizeStatus)
}

func TestProfileStore_LoadPending(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	current := delta.Map{"pushRegistrationId": delta.String("old")}
	require.NoError(t, s.Save(ctx, models.ProfileInstallation, models.SlotCurrent, current))

	c, d, err := s.LoadPending(ctx, models.ProfileInstallation)
	require.NoError(t, err)
	assert.True(t, delta.EqualMaps(c, d), "missing dirty mirrors current")

	dirty := delta.Map{"pushRegistrationId": delta.String("old"), "pushServiceToken": delta.String("new-token")}
	require.NoError(t, s.Save(ctx, models.ProfileInstallation, models.SlotDirty, dirty))
	_, d, err = s.LoadPending(ctx, models.ProfileInstallation)
	require.NoError(t, err)
	assert.True(t, delta.EqualMaps(dirty, d))
}
