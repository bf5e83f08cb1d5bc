// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the synchronization engine: the installation
// and user synchronization services, the depersonalization coordinator and
// the registry of dependent subservices.
//
// Every network-bound operation is a task on one of two [queue.Queue]
// instances. Public methods enqueue and return a [queue.Ticket]; outcomes
// are delivered to the optional completion callback.
package service

import (
	"context"

	"github.com/MKhiriev/go-push-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// Subservice is a component that keeps its own personal data and must react
// to the installation lifecycle.
type Subservice interface {
	Name() string

	// DepersonalizeService wipes the data of the subservice. It runs inside
	// the depersonalization task before the backend call.
	DepersonalizeService(ctx context.Context) error

	// UpdateRegistrationEnabledStatus re-reads the registration status and
	// resumes or suspends the subservice.
	UpdateRegistrationEnabledStatus(ctx context.Context) error

	AppWillEnterForeground(ctx context.Context) error
}

// RegistrationStatusSource reports whether the subservices may operate.
type RegistrationStatusSource interface {
	IsRegistrationEnabled(ctx context.Context) (bool, error)
}

// SystemDataProvider returns the current device and SDK facts.
type SystemDataProvider interface {
	SystemData(ctx context.Context) (models.SystemData, error)
}

// SystemDataFunc adapts a function to [SystemDataProvider].
type SystemDataFunc func(ctx context.Context) (models.SystemData, error)

// SystemData implements [SystemDataProvider].
func (f SystemDataFunc) SystemData(ctx context.Context) (models.SystemData, error) {
	return f(ctx)
}
