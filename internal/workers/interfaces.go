// Package workers provides the background jobs of the engine: the periodic
// synchronization, the reachability probe and the foreground trigger.
// It defines the Worker interface and a Workers aggregate that runs and
// stops them together.
package workers

import (
	"context"

	"github.com/MKhiriev/go-push-sync/internal/queue"
)

// Worker is the interface that must be implemented by any background worker.
//
// Run blocks until ctx is cancelled.
//
// Example implementation:
//
//	type MyWorker struct{}
//
//	func (w *MyWorker) Name() string { return "my-worker" }
//
//	func (w *MyWorker) Run(ctx context.Context) {
//	    <-ctx.Done()
//	}
type Worker interface {
	Name() string
	Run(ctx context.Context)
}

// Syncer enqueues a background synchronization of one profile.
type Syncer interface {
	SyncWithServer(ctx context.Context, userInitiated bool, onFinish func(error)) *queue.Ticket
}

// Prober checks whether the backend answers.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ForegroundHandler reacts to the application entering the foreground.
type ForegroundHandler interface {
	AppWillEnterForeground(ctx context.Context) error
}
