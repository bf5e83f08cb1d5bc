package models

import "github.com/MKhiriev/go-push-sync/internal/delta"

// User represents the personal data attached to an installation.
// It contains identity attributes that are wiped on depersonalization.
type User struct {
	// ExternalUserID is the identity used to personalize the installation.
	ExternalUserID string `json:"externalUserId,omitempty"`

	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	MiddleName string `json:"middleName,omitempty"`
	Gender     string `json:"gender,omitempty"`

	// Birthday is kept as "YYYY-MM-DD" the way the backend transmits it.
	Birthday string `json:"birthday,omitempty"`

	Emails []string `json:"emails,omitempty"`
	Phones []string `json:"phones,omitempty"`
	Tags   []string `json:"tags,omitempty"`

	CustomAttributes map[string]any `json:"customAttributes,omitempty"`

	// Type is either "CUSTOMER" or "LEAD".
	Type string `json:"type,omitempty"`
}

// UserIdentity carries the attributes the backend uses to look up a person
// during personalization. At least one field must be set.
type UserIdentity struct {
	ExternalUserID string   `json:"externalUserId,omitempty"`
	Emails         []string `json:"emails,omitempty"`
	Phones         []string `json:"phones,omitempty"`
}

// IsEmpty reports whether no identity attribute was provided.
func (u UserIdentity) IsEmpty() bool {
	return u.ExternalUserID == "" && len(u.Emails) == 0 && len(u.Phones) == 0
}

// ToMap converts the user to the delta representation.
func (u User) ToMap() (delta.Map, error) {
	return toMap(u)
}

// ToMap converts the identity to the delta representation.
func (u UserIdentity) ToMap() (delta.Map, error) {
	return toMap(u)
}

// UserFromMap restores a user from its delta representation.
func UserFromMap(m delta.Map) (User, error) {
	var u User
	if len(m) == 0 {
		return u, nil
	}
	if err := fromMap(m, &u); err != nil {
		return User{}, err
	}
	return u, nil
}
