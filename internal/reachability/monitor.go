// Package reachability tracks whether the push backend can be reached.
//
// A [Monitor] holds the last known state and wakes waiters on every
// transition to reachable. A [Prober] feeds it from periodic HTTP checks.
package reachability

import (
	"sync"

	"github.com/MKhiriev/go-push-sync/internal/logger"
)

// Monitor is safe for concurrent use.
type Monitor struct {
	logger *logger.Logger

	mu        sync.Mutex
	reachable bool
	changes   chan struct{}
}

// NewMonitor returns a monitor starting in the given state.
func NewMonitor(reachable bool, log *logger.Logger) *Monitor {
	return &Monitor{
		logger:    log,
		reachable: reachable,
		changes:   make(chan struct{}),
	}
}

// IsReachable returns the last known state.
func (m *Monitor) IsReachable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable
}

// Changes returns a channel that is closed on the next transition to
// reachable. Callers must take the channel before checking [Monitor.IsReachable].
func (m *Monitor) Changes() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changes
}

// SetReachable records the new state. It reports whether the state changed.
func (m *Monitor) SetReachable(reachable bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reachable == reachable {
		return false
	}
	m.reachable = reachable
	if reachable {
		close(m.changes)
		m.changes = make(chan struct{})
	}

	m.logger.Info().Str("func", "Monitor.SetReachable").Bool("reachable", reachable).Msg("backend reachability changed")
	return true
}
