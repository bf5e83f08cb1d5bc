// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client runs the push synchronization engine as a process.
//
// It wires storage, the backend adapter, subservices and background workers
// into a single lifecycle and, in development mode, an in-process stub
// backend.
package client
