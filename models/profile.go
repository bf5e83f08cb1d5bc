// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-push-sync/internal/delta"
)

// ProfileType names one of the record types kept by the profile store.
type ProfileType string

const (
	// ProfileInstallation is the device registration record.
	ProfileInstallation ProfileType = "installation"
	// ProfileUser is the personal data record attached to the installation.
	ProfileUser ProfileType = "user"
	// ProfileInternal is process-wide metadata that is never sent as user data.
	ProfileInternal ProfileType = "internal"
)

// ProfileTypes lists every profile type in a stable order.
var ProfileTypes = []ProfileType{ProfileInstallation, ProfileUser, ProfileInternal}

// Slot names one of the persisted buffers kept for a profile type.
type Slot string

const (
	// SlotCurrent holds the last state confirmed by the backend.
	SlotCurrent Slot = "current"
	// SlotDirty holds local edits that are not synchronized yet.
	SlotDirty Slot = "dirty"
)

// StorageKey returns the stable archive key of the slot, e.g. "current-user".
func StorageKey(t ProfileType, s Slot) string {
	return string(s) + "-" + string(t)
}

// toMap converts any JSON-tagged profile into the canonical delta form.
func toMap(v any) (delta.Map, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	var decoded map[string]any
	if err = json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return delta.FromAny(decoded).AsMap(), nil
}

// fromMap fills the JSON-tagged profile pointed to by target from m.
func fromMap(m delta.Map, target any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode profile map: %w", err)
	}
	if err = json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode profile map: %w", err)
	}
	return nil
}
