package viewer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"mapsview/core-go/internal/mapconfig"
	"mapsview/core-go/internal/mapview"
	"mapsview/core-go/internal/metrics"
)

var (
	// ErrNoConfiguration is returned when a parent is selected before any configuration.
	ErrNoConfiguration = errors.New("no map configuration selected")

	// ErrSuperseded is returned when a newer selection on the same view finished first or is
	// still running; the result was discarded.
	ErrSuperseded = errors.New("selection superseded by a newer one")
)

// Session is one open map page. Every parent selection takes a new generation and only the
// result of the latest generation may change the map. A configuration change takes effect
// only once it has resolved, and then invalidates every parent refresh still in flight.
type Session struct {
	id       string
	log      zerolog.Logger
	pipeline *Pipeline
	state    *mapview.State
	metrics  *metrics.Metrics
	lastSeen atomic.Int64

	mu            sync.Mutex
	generation    uint64
	configIssued  uint64
	configApplied uint64
	config        *mapconfig.Configuration
	parentID      string
}

// View is what a client needs to mirror the page.
type View struct {
	ID            string           `json:"id" msgpack:"id"`
	Configuration string           `json:"configuration,omitempty" msgpack:"configuration,omitempty"`
	ParentDoctype string           `json:"parent_doctype,omitempty" msgpack:"parent_doctype,omitempty"`
	ParentID      string           `json:"parent,omitempty" msgpack:"parent,omitempty"`
	Generation    uint64           `json:"generation" msgpack:"generation"`
	Map           mapview.Snapshot `json:"map" msgpack:"map"`
}

func (s *Session) ID() string { return s.id }

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// SelectConfiguration resolves name and makes it the active configuration. The selected
// parent is cleared because it belongs to the previous parent doctype; the map keeps its
// markers until the next parent selection. A failed resolution changes nothing.
func (s *Session) SelectConfiguration(ctx context.Context, name string) (mapconfig.Configuration, error) {
	s.mu.Lock()
	s.configIssued++
	ticket := s.configIssued
	s.mu.Unlock()

	cfg, err := s.pipeline.Resolve(ctx, name)
	if err != nil {
		return mapconfig.Configuration{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket < s.configApplied {
		s.metrics.IncStaleResult()
		return mapconfig.Configuration{}, ErrSuperseded
	}
	s.configApplied = ticket
	s.generation++
	s.config = &cfg
	s.parentID = ""
	s.log.Info().Str("config", cfg.Name).Msg("map configuration selected")
	return cfg, nil
}

// SelectParent fetches and projects the children of parentID and redraws the map with
// them. It returns the number of markers drawn.
func (s *Session) SelectParent(ctx context.Context, parentID string) (int, error) {
	s.mu.Lock()
	if s.config == nil {
		s.mu.Unlock()
		return 0, ErrNoConfiguration
	}
	cfg := *s.config
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	descs, err := s.pipeline.Markers(ctx, Selection{Config: cfg, ParentID: parentID})
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.metrics.IncStaleResult()
		s.log.Debug().Uint64("generation", gen).Uint64("latest", s.generation).Msg("discarding stale markers")
		return 0, ErrSuperseded
	}

	n, err := s.state.Refresh(descs)
	if err != nil {
		return 0, err
	}
	s.parentID = parentID
	s.metrics.ObserveRefresh(n)
	s.log.Info().Str("config", cfg.Name).Str("parent", parentID).Int("markers", n).Msg("map refreshed")
	return n, nil
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:         s.id,
		ParentID:   s.parentID,
		Generation: s.generation,
		Map:        s.state.Snapshot(),
	}
	if s.config != nil {
		v.Configuration = s.config.Name
		v.ParentDoctype = s.config.ParentDoctype
	}
	return v
}
