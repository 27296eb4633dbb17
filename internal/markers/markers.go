// Package markers projects child records into render-ready marker descriptors.
package markers

import (
	"fmt"
	"math"

	"mapsview/core-go/internal/mapconfig"
	"mapsview/core-go/internal/records"
)

// DefaultColor is used when no color coding matches.
const DefaultColor = "#000"

type Position struct {
	Lat float64 `json:"lat" msgpack:"lat"`
	Lng float64 `json:"lng" msgpack:"lng"`
}

// Finite reports whether both components are real numbers.
func (p Position) Finite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

type PopupEntry struct {
	Label string `json:"label" msgpack:"label"`
	Value any    `json:"value" msgpack:"value"`
}

// Descriptor is one marker. It is rebuilt on every refresh and never mutated.
type Descriptor struct {
	Position Position     `json:"position" msgpack:"position"`
	Color    string       `json:"color" msgpack:"color"`
	Title    string       `json:"title" msgpack:"title"`
	Popup    []PopupEntry `json:"popup" msgpack:"popup"`
}

// Project keeps input order and drops records without usable coordinates. parent may be nil
// when no display field reads from the parent record.
func Project(recs []records.Record, cfg mapconfig.Configuration, parent records.Record, policy Policy) []Descriptor {
	out := make([]Descriptor, 0, len(recs))
	for _, rec := range recs {
		pos, ok := Coordinates(rec, cfg, policy)
		if !ok {
			continue
		}
		out = append(out, Descriptor{
			Position: pos,
			Color:    ResolveColor(cfg, rec),
			Title:    rec.Name(),
			Popup:    PopupContent(cfg, rec, parent),
		})
	}
	return out
}

// Coordinates extracts the configured latitude and longitude of rec.
func Coordinates(rec records.Record, cfg mapconfig.Configuration, policy Policy) (Position, bool) {
	lat, ok := policy.coordinate(rec[cfg.ChildLatitudeField])
	if !ok {
		return Position{}, false
	}
	lng, ok := policy.coordinate(rec[cfg.ChildLongitudeField])
	if !ok {
		return Position{}, false
	}
	return Position{Lat: lat, Lng: lng}, true
}

// ResolveColor returns the color of the first coding whose value equals the record's color
// field, or DefaultColor.
func ResolveColor(cfg mapconfig.Configuration, rec records.Record) string {
	if cfg.ColorCodingField == "" {
		return DefaultColor
	}
	v, ok := valueString(rec[cfg.ColorCodingField])
	if !ok {
		return DefaultColor
	}
	for _, c := range cfg.ColorCodings {
		if c.Value == v {
			return c.Color
		}
	}
	return DefaultColor
}

// PopupContent builds the (label, value) list in display field order. Fields missing from
// their source record, nil and non-finite floats are skipped.
func PopupContent(cfg mapconfig.Configuration, child, parent records.Record) []PopupEntry {
	out := make([]PopupEntry, 0, len(cfg.DisplayFields))
	for _, d := range cfg.DisplayFields {
		src := child
		if d.Source == mapconfig.SourceParent {
			src = parent
		}
		v, ok := src[d.FieldName]
		if !ok || absent(v) {
			continue
		}
		out = append(out, PopupEntry{Label: d.Label(), Value: v})
	}
	return out
}

func absent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t) || math.IsInf(t, 0)
	case float32:
		return math.IsNaN(float64(t)) || math.IsInf(float64(t), 0)
	default:
		return false
	}
}

func valueString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}
