package mapview

import (
	"context"
	"errors"

	"mapsview/core-go/internal/markers"
)

var ErrPositionUnavailable = errors.New("current position unavailable")

// Geolocator is a one-shot, best-effort source of the viewer's position.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (markers.Position, error)
}

type GeolocatorFunc func(ctx context.Context) (markers.Position, error)

func (f GeolocatorFunc) CurrentPosition(ctx context.Context) (markers.Position, error) {
	return f(ctx)
}

// HintGeolocator reports the position the client measured itself when opening the view.
type HintGeolocator struct {
	Hint *markers.Position
}

func (h HintGeolocator) CurrentPosition(context.Context) (markers.Position, error) {
	if h.Hint == nil || !h.Hint.Finite() {
		return markers.Position{}, ErrPositionUnavailable
	}
	return *h.Hint, nil
}
