package workers

import (
	"context"

	"github.com/MKhiriev/go-push-sync/internal/logger"
)

type foreground struct {
	events  <-chan struct{}
	handler ForegroundHandler
	logger  *logger.Logger
}

// NewForegroundWorker returns a worker that calls the handler for every
// event received from events.
func NewForegroundWorker(events <-chan struct{}, handler ForegroundHandler, log *logger.Logger) Worker {
	return &foreground{events: events, handler: handler, logger: log}
}

func (f *foreground) Name() string { return "foreground" }

func (f *foreground) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-f.events:
			if !ok {
				return
			}
			if err := f.handler.AppWillEnterForeground(ctx); err != nil {
				f.logger.Warn().Err(err).Str("func", "ForegroundWorker").Msg("foreground handling failed")
			}
		}
	}
}
