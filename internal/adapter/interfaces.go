// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport layer between the synchronization
// engine and the push backend.
//
// The primary abstraction is [RemoteAPI], which decouples the services from
// the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPRemoteAPI]) built on resty.
//
// Error values defined in errors.go are mapped from transport failures and
// HTTP status codes by mapHTTPError so that callers can use [errors.Is] and
// [IsRetriable] without knowing the protocol.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-push-sync/internal/delta"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_api_mock.go -package=mock

// RemoteAPI is the push backend as seen by the synchronization services.
// Request bodies and results use logical field names; implementations
// translate them to wire names.
type RemoteAPI interface {
	// CreateInstance registers a new installation and returns the server
	// view of it, including the issued push registration id.
	CreateInstance(ctx context.Context, appCode string, body delta.Map) (delta.Map, error)

	// UpdateInstance sends a patch of the installation identified by pushRegID.
	UpdateInstance(ctx context.Context, appCode, pushRegID string, patch delta.Map) error

	// DeleteInstance expires expiredPushRegID on behalf of pushRegID.
	DeleteInstance(ctx context.Context, appCode, pushRegID, expiredPushRegID string) error

	// FetchInstance returns the server view of the installation.
	FetchInstance(ctx context.Context, appCode, pushRegID string) (delta.Map, error)

	// FetchUser returns the user attached to the installation.
	FetchUser(ctx context.Context, appCode, pushRegID string) (delta.Map, error)

	// UpdateUser sends a patch of the user attached to the installation.
	UpdateUser(ctx context.Context, appCode, pushRegID string, patch delta.Map) error

	// Personalize attaches the person matching identity to the installation.
	// With force the installation is depersonalized first if needed.
	Personalize(ctx context.Context, appCode, pushRegID string, identity, attributes delta.Map, force bool) (delta.Map, error)

	// Depersonalize detaches the person from the installation.
	Depersonalize(ctx context.Context, appCode, pushRegID string) error
}
