// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors of request parsing. Callers can match against them with
// [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// incoming request does not include an "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader is returned when the "Authorization"
	// header cannot be split into a scheme and a credential.
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrEmptyRegistrationID is returned for instance and user routes
	// without the pushregistrationid header.
	ErrEmptyRegistrationID = errors.New("empty `pushregistrationid` header")

	// ErrInvalidJSON is returned for a request body that is not a JSON object.
	ErrInvalidJSON = errors.New("invalid JSON was passed")
)
