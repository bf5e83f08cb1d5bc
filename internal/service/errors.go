package service

import "errors"

var (
	// ErrProtectedDataUnavailable is returned before any network call while a
	// depersonalization is pending.
	ErrProtectedDataUnavailable = errors.New("protected data unavailable: depersonalization pending")

	// ErrMissingPushServiceToken is returned when an installation cannot be
	// created because no push service token was saved yet.
	ErrMissingPushServiceToken = errors.New("push service token is not set")

	// ErrRegistrationUnavailable is returned by operations that need a push
	// registration id before the installation was created.
	ErrRegistrationUnavailable = errors.New("installation is not registered")

	// ErrMissingIdentityInResponse is returned when the backend confirmed a
	// create without issuing a registration id.
	ErrMissingIdentityInResponse = errors.New("backend response has no push registration id")

	// ErrEmptyUserIdentity is returned by Personalize without identity attributes.
	ErrEmptyUserIdentity = errors.New("user identity is empty")
)

// Depersonalization outcomes wrapped around the backend error.
var (
	// ErrDepersonalizePending means the request failed and will be retried on
	// the next foreground or sync trigger.
	ErrDepersonalizePending = errors.New("depersonalization pending")

	// ErrDepersonalizeGaveUp means the failure limit was reached and the
	// installation is treated as depersonalized.
	ErrDepersonalizeGaveUp = errors.New("depersonalization failure limit reached")
)
