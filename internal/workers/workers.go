package workers

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-push-sync/internal/logger"
)

// Workers runs a set of workers until Stop is called.
type Workers struct {
	workers []Worker
	logger  *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns an idle aggregate of ws.
func New(log *logger.Logger, ws ...Worker) *Workers {
	return &Workers{workers: ws, logger: log}
}

// Start stops any previous run, then launches every worker in its own
// goroutine. They exit when ctx is cancelled or Stop is called.
func (w *Workers) Start(ctx context.Context) {
	w.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for _, worker := range w.workers {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.logger.Debug().Str("func", "Workers.Start").Str("worker", worker.Name()).Msg("worker started")
			worker.Run(runCtx)
			w.logger.Debug().Str("func", "Workers.Start").Str("worker", worker.Name()).Msg("worker stopped")
		}()
	}
}

// Stop cancels the workers and blocks until all of them returned. Safe to
// call when nothing runs.
func (w *Workers) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}
