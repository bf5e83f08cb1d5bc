package models

import "github.com/MKhiriev/go-push-sync/internal/delta"

// Logical field names of the installation profile that other packages refer to.
const (
	FieldPushRegistrationID        = "pushRegistrationId"
	FieldPushServiceToken          = "pushServiceToken"
	FieldIsPushRegistrationEnabled = "isPushRegistrationEnabled"
	FieldIsPrimaryDevice           = "isPrimaryDevice"
	FieldApplicationUserID         = "applicationUserId"
	FieldCustomAttributes          = "customAttributes"
	FieldRegistrationDate          = "registrationDate"
)

// Installation describes this device as known by the push backend.
//
// PushRegistrationID is the server-issued identity. It is empty until the
// first successful create round trip.
type Installation struct {
	PushRegistrationID        string         `json:"pushRegistrationId,omitempty"`
	PushServiceToken          string         `json:"pushServiceToken,omitempty"`
	PushServiceType           string         `json:"pushServiceType,omitempty"`
	IsPushRegistrationEnabled bool           `json:"isPushRegistrationEnabled"`
	IsPrimaryDevice           bool           `json:"isPrimaryDevice"`
	NotificationsEnabled      bool           `json:"notificationsEnabled"`
	ApplicationUserID         string         `json:"applicationUserId,omitempty"`
	CustomAttributes          map[string]any `json:"customAttributes,omitempty"`
	RegistrationDate          string         `json:"registrationDate,omitempty"`
}

// EmptyInstallation returns the factory default installation.
func EmptyInstallation() Installation {
	return Installation{IsPushRegistrationEnabled: true, NotificationsEnabled: true}
}

// ToMap converts the installation to the delta representation.
func (i Installation) ToMap() (delta.Map, error) {
	return toMap(i)
}

// InstallationFromMap restores an installation from its delta representation.
// An empty map yields [EmptyInstallation].
func InstallationFromMap(m delta.Map) (Installation, error) {
	inst := EmptyInstallation()
	if len(m) == 0 {
		return inst, nil
	}
	if err := fromMap(m, &inst); err != nil {
		return Installation{}, err
	}
	return inst, nil
}

// HasIdentity reports whether the backend already issued a registration id.
func (i Installation) HasIdentity() bool {
	return i.PushRegistrationID != ""
}

// WithoutPersonalData returns a copy that keeps only the device identity and
// push settings. Used when the installation is depersonalized.
func (i Installation) WithoutPersonalData() Installation {
	clean := EmptyInstallation()
	clean.PushRegistrationID = i.PushRegistrationID
	clean.PushServiceToken = i.PushServiceToken
	clean.PushServiceType = i.PushServiceType
	clean.IsPushRegistrationEnabled = i.IsPushRegistrationEnabled
	clean.NotificationsEnabled = i.NotificationsEnabled
	clean.IsPrimaryDevice = i.IsPrimaryDevice
	clean.RegistrationDate = i.RegistrationDate
	return clean
}
