package models

import (
	"fmt"

	"github.com/MKhiriev/go-push-sync/internal/delta"
)

// DepersonalizationStatus tracks the logout protocol across restarts.
type DepersonalizationStatus string

const (
	// DepersonalizationUndefined means nothing is in flight.
	DepersonalizationUndefined DepersonalizationStatus = "undefined"
	// DepersonalizationPending means the last request failed and a retry is due.
	// Ordinary registration traffic is blocked while in this state.
	DepersonalizationPending DepersonalizationStatus = "pending"
	// DepersonalizationSuccess is the transitional state after the backend
	// confirmed the request and before subservices resumed.
	DepersonalizationSuccess DepersonalizationStatus = "success"
)

// Valid reports whether s is one of the known statuses.
func (s DepersonalizationStatus) Valid() bool {
	switch s {
	case DepersonalizationUndefined, DepersonalizationPending, DepersonalizationSuccess:
		return true
	}
	return false
}

// UnmarshalText rejects unknown statuses so a corrupted archive is noticed.
func (s *DepersonalizationStatus) UnmarshalText(b []byte) error {
	v := DepersonalizationStatus(b)
	if v == "" {
		v = DepersonalizationUndefined
	}
	if !v.Valid() {
		return fmt.Errorf("unknown depersonalization status %q", string(b))
	}
	*s = v
	return nil
}

// InternalData is SDK bookkeeping that never takes part in user data deltas.
type InternalData struct {
	// SystemDataHash fingerprints the last system data sent to the backend.
	SystemDataHash string `json:"systemDataHash,omitempty"`

	BadgeNumber int `json:"badgeNumber,omitempty"`

	DepersonalizeStatus      DepersonalizationStatus `json:"depersonalizeStatus,omitempty"`
	DepersonalizeFailCounter int                     `json:"depersonalizeFailCounter,omitempty"`

	// RegistrationDate is the RFC 3339 timestamp of the first confirmed create.
	RegistrationDate string `json:"registrationDate,omitempty"`
}

// EmptyInternalData returns the factory default.
func EmptyInternalData() InternalData {
	return InternalData{DepersonalizeStatus: DepersonalizationUndefined}
}

// ToMap converts the record to the delta representation.
func (d InternalData) ToMap() (delta.Map, error) {
	return toMap(d)
}

// InternalDataFromMap restores the record from its delta representation.
func InternalDataFromMap(m delta.Map) (InternalData, error) {
	d := EmptyInternalData()
	if len(m) == 0 {
		return d, nil
	}
	if err := fromMap(m, &d); err != nil {
		return InternalData{}, err
	}
	if d.DepersonalizeStatus == "" {
		d.DepersonalizeStatus = DepersonalizationUndefined
	}
	return d, nil
}
