// Package mapview owns the live map of a view: the viewport, the base tile layer and the
// marker layers, and the rules for when they are redrawn.
package mapview

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"mapsview/core-go/internal/markers"
)

const (
	DefaultZoom        = 13
	DefaultTileURL     = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	DefaultMaxZoom     = 20
)

// DefaultCenter is the reference viewport used until geolocation or a refresh moves it.
var DefaultCenter = markers.Position{Lat: 28.429411, Lng: 77.312271}

var ErrNotInitialized = errors.New("map view not initialized")

type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusReady         Status = "ready"
)

type Options struct {
	Center markers.Position
	Zoom   int
	Tiles  TileLayer
}

func (o Options) withDefaults() Options {
	if o.Center == (markers.Position{}) || !o.Center.Finite() {
		o.Center = DefaultCenter
	}
	if o.Zoom <= 0 {
		o.Zoom = DefaultZoom
	}
	if o.Tiles.URLTemplate == "" {
		o.Tiles.URLTemplate = DefaultTileURL
	}
	if o.Tiles.Attribution == "" {
		o.Tiles.Attribution = DefaultAttribution
	}
	if o.Tiles.MaxZoom <= 0 {
		o.Tiles.MaxZoom = DefaultMaxZoom
	}
	return o
}

// PinIcon is the marker icon drawn in the given color.
func PinIcon(color string) Icon {
	return Icon{
		ClassName:   "map-pin",
		Shape:       "pin",
		Color:       color,
		IconAnchor:  [2]int{0, 24},
		PopupAnchor: [2]int{0, -36},
	}
}

// State is the single owner of a Surface.
type State struct {
	mu      sync.Mutex
	log     zerolog.Logger
	surface Surface
	geo     Geolocator
	opts    Options

	status     Status
	recentered bool
	refreshes  uint64
	located    chan struct{}
}

func New(log zerolog.Logger, surface Surface, geo Geolocator, opts Options) *State {
	if geo == nil {
		geo = HintGeolocator{}
	}
	return &State{
		log:     log,
		surface: surface,
		geo:     geo,
		opts:    opts.withDefaults(),
		status:  StatusUninitialized,
		located: make(chan struct{}),
	}
}

// Initialize shows the default viewport with the base tile layer and starts a background
// geolocation lookup. It never waits for the lookup. Calling it again is a no-op.
func (s *State) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.status == StatusReady {
		s.mu.Unlock()
		return
	}
	s.surface.SetView(s.opts.Center, s.opts.Zoom)
	s.surface.AddTileLayer(s.opts.Tiles)
	s.status = StatusReady
	s.mu.Unlock()

	go s.locate(context.WithoutCancel(ctx))
}

func (s *State) locate(ctx context.Context) {
	defer close(s.located)

	pos, err := s.geo.CurrentPosition(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("geolocation unavailable; keeping default viewport")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A refresh that already centered on a marker wins over a late position fix.
	if s.recentered {
		return
	}
	s.surface.SetView(pos, s.opts.Zoom)
}

// Located is closed once the geolocation attempt started by Initialize has finished.
func (s *State) Located() <-chan struct{} {
	return s.located
}

// Refresh clears every layer, redraws the base tile layer and adds one marker per
// descriptor. The viewport moves to the first drawn marker; with no markers it stays put.
// It returns the number of markers drawn.
func (s *State) Refresh(descs []markers.Descriptor) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReady {
		return 0, ErrNotInitialized
	}

	s.surface.EachLayer(func(id LayerID) {
		s.surface.RemoveLayer(id)
	})
	s.surface.AddTileLayer(s.opts.Tiles)

	drawn := 0
	for _, d := range descs {
		if !d.Position.Finite() {
			continue
		}
		if drawn == 0 {
			s.surface.SetView(d.Position, s.opts.Zoom)
			s.recentered = true
		}
		s.surface.AddMarker(Marker{
			Position: d.Position,
			Title:    d.Title,
			Icon:     PinIcon(d.Color),
			Popup:    d.Popup,
		})
		drawn++
	}
	s.refreshes++
	return drawn, nil
}

// Snapshot is a serializable copy of the map.
type Snapshot struct {
	Status    Status           `json:"status" msgpack:"status"`
	Center    markers.Position `json:"center" msgpack:"center"`
	Zoom      int              `json:"zoom" msgpack:"zoom"`
	Refreshes uint64           `json:"refreshes" msgpack:"refreshes"`
	Layers    []Layer          `json:"layers" msgpack:"layers"`
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	center, zoom := s.surface.View()
	return Snapshot{
		Status:    s.status,
		Center:    center,
		Zoom:      zoom,
		Refreshes: s.refreshes,
		Layers:    s.surface.Layers(),
	}
}
