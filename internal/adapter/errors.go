package adapter

import (
	"errors"
)

var (
	// ErrTransport covers network failures, timeouts and 5xx answers.
	// It is the only retriable class.
	ErrTransport = errors.New("transport error")

	// ErrValidation is returned for rejected payloads (4xx).
	ErrValidation = errors.New("request rejected by backend")

	// ErrUnauthorized is returned for 401 and 403 answers.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrNoSuchRegistration means the backend does not know the push
	// registration id. The caller must recover the registration.
	ErrNoSuchRegistration = errors.New("no such registration")

	// ErrInvalidJWT is returned locally, before any request, for a malformed
	// or expired user token.
	ErrInvalidJWT = errors.New("invalid user jwt")

	// ErrDecodeResponse is returned when a 2xx body cannot be decoded.
	ErrDecodeResponse = errors.New("cannot decode backend response")

	// ErrEmptyBaseURL is returned by [NewHTTPRemoteAPI] without a base URL.
	ErrEmptyBaseURL = errors.New("empty backend base url")
)

// IsRetriable reports whether err should go through the retry policy.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrTransport)
}
