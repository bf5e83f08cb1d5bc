package stub

import "errors"

var (
	// ErrNoRegistration is returned for an unknown push registration id or
	// a registration that belongs to another application.
	ErrNoRegistration = errors.New("no such registration")

	// ErrMissingPushToken is returned by CreateInstance without a push
	// service token.
	ErrMissingPushToken = errors.New("push service token is required")

	// ErrEmptyIdentity is returned by Personalize without identity fields.
	ErrEmptyIdentity = errors.New("user identity is empty")

	// ErrAlreadyPersonalized is returned when the installation belongs to
	// another person and depersonalization was not forced.
	ErrAlreadyPersonalized = errors.New("installation is personalized to another user")

	// ErrUnauthorized is returned for a missing application code or an
	// invalid user token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable is returned by every call while the backend is switched
	// off with SetAvailable(false).
	ErrUnavailable = errors.New("backend unavailable")
)
