package reachability

import (
	"context"
	"net/http"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/utils"
)

// PingPath is probed on the backend base URL.
const PingPath = "/mobile/3/ping"

// Prober checks the backend with a lightweight GET request and feeds the
// result into a [Monitor].
type Prober struct {
	client  *utils.HTTPClient
	monitor *Monitor
	logger  *logger.Logger
}

// NewProber returns a prober that uses client.
func NewProber(client *utils.HTTPClient, monitor *Monitor, log *logger.Logger) *Prober {
	return &Prober{client: client, monitor: monitor, logger: log}
}

// Probe performs one check and returns the resulting state. Any HTTP
// answer below 500 counts as reachable.
func (p *Prober) Probe(ctx context.Context) bool {
	resp, err := p.client.R().SetContext(ctx).Get(PingPath)
	reachable := err == nil && resp.StatusCode() < http.StatusInternalServerError
	if err != nil {
		p.logger.Debug().Err(err).Str("func", "Prober.Probe").Msg("backend probe failed")
	}

	p.monitor.SetReachable(reachable)
	return reachable
}
