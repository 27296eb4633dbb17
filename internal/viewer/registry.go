package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mapsview/core-go/internal/mapview"
	"mapsview/core-go/internal/markers"
	"mapsview/core-go/internal/metrics"
)

type Options struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
	Map           mapview.Options
}

// Registry holds the open views of all clients.
type Registry struct {
	log           zerolog.Logger
	pipeline      *Pipeline
	metrics       *metrics.Metrics
	ttl           time.Duration
	sweepInterval time.Duration
	mapOpts       mapview.Options
	now           func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(log zerolog.Logger, p *Pipeline, opts Options, m *metrics.Metrics) *Registry {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	sweep := opts.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}
	return &Registry{
		log:           log,
		pipeline:      p,
		metrics:       m,
		ttl:           ttl,
		sweepInterval: sweep,
		mapOpts:       opts.Map,
		now:           time.Now,
		sessions:      make(map[string]*Session),
	}
}

// Open creates a view with an initialized map. hint is the client's own position fix, if any.
func (r *Registry) Open(ctx context.Context, hint *markers.Position) *Session {
	id := uuid.New().String()
	log := r.log.With().Str("view", id).Logger()

	s := &Session{
		id:       id,
		log:      log,
		pipeline: r.pipeline,
		metrics:  r.metrics,
		state:    mapview.New(log, mapview.NewMemorySurface(), mapview.HintGeolocator{Hint: hint}, r.mapOpts),
	}
	s.touch(r.now())
	s.state.Initialize(ctx)

	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveViews(n)
	log.Info().Msg("map view opened")
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		r.metrics.SetActiveViews(n)
		r.log.Info().Str("view", id).Msg("map view closed")
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Run expires idle views until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	timer := time.NewTimer(r.sweepInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if n := r.sweep(); n > 0 {
			r.log.Info().Int("expired", n).Msg("expired idle map views")
		}
		timer.Reset(r.sweepInterval)
	}
}

func (r *Registry) sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	expired := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			expired++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if expired > 0 {
		r.metrics.SetActiveViews(n)
	}
	return expired
}
