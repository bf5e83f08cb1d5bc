package workers

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/logger"
)

// periodic calls fn on every tick of interval.
type periodic struct {
	name     string
	interval time.Duration
	clock    clockwork.Clock
	fn       func(ctx context.Context)
}

func (p *periodic) Name() string { return p.name }

func (p *periodic) Run(ctx context.Context) {
	t := p.clock.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			p.fn(ctx)
		}
	}
}

// NewSyncWorker returns a worker that enqueues a background sync of every
// syncer on each interval. Outcomes are only logged; failed tasks were
// already retried by the queue.
func NewSyncWorker(interval time.Duration, clock clockwork.Clock, log *logger.Logger, syncers ...Syncer) Worker {
	return &periodic{
		name:     "sync",
		interval: interval,
		clock:    clock,
		fn: func(ctx context.Context) {
			for _, s := range syncers {
				s.SyncWithServer(ctx, false, func(err error) {
					if err != nil {
						log.Warn().Err(err).Str("func", "SyncWorker").Msg("periodic sync failed")
					}
				})
			}
		},
	}
}

// NewProbeWorker returns a worker that probes the backend on each interval.
func NewProbeWorker(interval time.Duration, clock clockwork.Clock, prober Prober) Worker {
	return &periodic{
		name:     "reachability",
		interval: interval,
		clock:    clock,
		fn: func(ctx context.Context) {
			prober.Probe(ctx)
		},
	}
}
