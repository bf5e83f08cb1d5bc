// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "errors"

var (
	// ErrStubDisabled is returned by [NewServer] when the stub backend is
	// switched off in the configuration.
	ErrStubDisabled = errors.New("stub backend is disabled")
	// ErrEmptyAddress is returned when no listen address is configured.
	ErrEmptyAddress = errors.New("stub listen address is empty")
	ErrNoHandlers   = errors.New("stub handlers are not created")
)
