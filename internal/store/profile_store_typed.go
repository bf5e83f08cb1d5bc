package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-push-sync/internal/delta"
	"github.com/MKhiriev/go-push-sync/models"
)

// LoadInstallation returns the installation kept in slot.
func (s *ProfileStore) LoadInstallation(ctx context.Context, slot models.Slot) (models.Installation, error) {
	m, err := s.Load(ctx, models.ProfileInstallation, slot)
	if err != nil {
		return models.Installation{}, err
	}
	return models.InstallationFromMap(m)
}

// SaveInstallation replaces the installation kept in slot.
func (s *ProfileStore) SaveInstallation(ctx context.Context, slot models.Slot, inst models.Installation) error {
	m, err := inst.ToMap()
	if err != nil {
		return fmt.Errorf("convert installation: %w", err)
	}
	return s.Save(ctx, models.ProfileInstallation, slot, m)
}

// LoadUser returns the user kept in slot.
func (s *ProfileStore) LoadUser(ctx context.Context, slot models.Slot) (models.User, error) {
	m, err := s.Load(ctx, models.ProfileUser, slot)
	if err != nil {
		return models.User{}, err
	}
	return models.UserFromMap(m)
}

// SaveUser replaces the user kept in slot.
func (s *ProfileStore) SaveUser(ctx context.Context, slot models.Slot, user models.User) error {
	m, err := user.ToMap()
	if err != nil {
		return fmt.Errorf("convert user: %w", err)
	}
	return s.Save(ctx, models.ProfileUser, slot, m)
}

// LoadInternal returns the current internal data. Internal data only has a
// current slot.
func (s *ProfileStore) LoadInternal(ctx context.Context) (models.InternalData, error) {
	m, err := s.Load(ctx, models.ProfileInternal, models.SlotCurrent)
	if err != nil {
		return models.InternalData{}, err
	}
	return models.InternalDataFromMap(m)
}

// UpdateInternal atomically applies fn to the current internal data and
// persists the result before returning it.
func (s *ProfileStore) UpdateInternal(ctx context.Context, fn func(d *models.InternalData) error) (models.InternalData, error) {
	var result models.InternalData
	_, err := s.Update(ctx, models.ProfileInternal, models.SlotCurrent, func(old delta.Map) (delta.Map, error) {
		d, err := models.InternalDataFromMap(old)
		if err != nil {
			return nil, err
		}
		if err = fn(&d); err != nil {
			return nil, err
		}
		result = d
		return d.ToMap()
	})
	if err != nil {
		return models.InternalData{}, err
	}
	return result, nil
}

// LoadPending returns the current and dirty snapshots of t. A dirty slot that
// was never written mirrors current, so the pending delta is empty.
func (s *ProfileStore) LoadPending(ctx context.Context, t models.ProfileType) (current, dirty delta.Map, err error) {
	current, err = s.Load(ctx, t, models.SlotCurrent)
	if err != nil {
		return nil, nil, err
	}
	dirty, exists, err := s.Lookup(ctx, t, models.SlotDirty)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		dirty = current.Clone()
	}
	return current, dirty, nil
}
