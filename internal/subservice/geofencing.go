package subservice

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/service"
)

// Transition is the kind of a geofence crossing.
type Transition string

const (
	TransitionEnter Transition = "enter"
	TransitionExit  Transition = "exit"
)

// Region is a monitored circle.
type Region struct {
	ID        string
	Latitude  float64
	Longitude float64
	// Radius in meters.
	Radius float64
}

func (r Region) validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidRegion)
	case r.Latitude < -90 || r.Latitude > 90:
		return fmt.Errorf("%w: latitude %v", ErrInvalidRegion, r.Latitude)
	case r.Longitude < -180 || r.Longitude > 180:
		return fmt.Errorf("%w: longitude %v", ErrInvalidRegion, r.Longitude)
	case r.Radius <= 0:
		return fmt.Errorf("%w: radius %v", ErrInvalidRegion, r.Radius)
	}
	return nil
}

// GeoEvent is a crossing waiting to be reported.
type GeoEvent struct {
	RegionID   string
	Transition Transition
	At         time.Time
}

// Geofencing keeps the monitored regions and the crossings not reported yet.
type Geofencing struct {
	gate   *gate
	clock  clockwork.Clock
	logger *logger.Logger

	mu      sync.Mutex
	regions map[string]Region
	events  []GeoEvent
}

// NewGeofencing returns an empty geofencing subservice.
func NewGeofencing(source service.RegistrationStatusSource, clock clockwork.Clock, log *logger.Logger) *Geofencing {
	return &Geofencing{
		gate:    newGate("geofencing", source, log),
		clock:   clock,
		logger:  log,
		regions: make(map[string]Region),
	}
}

func (g *Geofencing) Name() string { return "geofencing" }

// AddRegion starts monitoring r, replacing a region with the same id.
func (g *Geofencing) AddRegion(r Region) error {
	if err := g.gate.check(); err != nil {
		return err
	}
	if err := r.validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.regions[r.ID] = r
	return nil
}

// Regions returns the monitored regions sorted by id.
func (g *Geofencing) Regions() []Region {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Region, 0, len(g.regions))
	for _, r := range g.regions {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Region) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Report records a crossing of a monitored region.
func (g *Geofencing) Report(regionID string, transition Transition) error {
	if err := g.gate.check(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.regions[regionID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRegion, regionID)
	}
	g.events = append(g.events, GeoEvent{RegionID: regionID, Transition: transition, At: g.clock.Now().UTC()})
	return nil
}

// DrainEvents returns and forgets the pending crossings.
func (g *Geofencing) DrainEvents() []GeoEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	events := g.events
	g.events = nil
	return events
}

// DepersonalizeService forgets every region and pending crossing.
func (g *Geofencing) DepersonalizeService(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.regions = make(map[string]Region)
	g.events = nil
	return nil
}

// UpdateRegistrationEnabledStatus drops pending crossings once the
// registration got disabled; they cannot be delivered anymore.
func (g *Geofencing) UpdateRegistrationEnabledStatus(ctx context.Context) error {
	changed, err := g.gate.refresh(ctx)
	if err != nil {
		return err
	}
	if changed && g.gate.check() != nil {
		g.mu.Lock()
		dropped := len(g.events)
		g.events = nil
		g.mu.Unlock()

		if dropped > 0 {
			g.logger.Debug().Str("func", "Geofencing.UpdateRegistrationEnabledStatus").Int("dropped", dropped).
				Msg("pending geo events dropped")
		}
	}
	return nil
}

func (g *Geofencing) AppWillEnterForeground(ctx context.Context) error {
	return g.UpdateRegistrationEnabledStatus(ctx)
}
