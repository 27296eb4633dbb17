package mapview

import (
	"sort"

	"mapsview/core-go/internal/markers"
)

type LayerID uint64

type LayerKind string

const (
	LayerTile   LayerKind = "tile"
	LayerMarker LayerKind = "marker"
)

type TileLayer struct {
	URLTemplate string `json:"url_template" msgpack:"url_template"`
	Attribution string `json:"attribution" msgpack:"attribution"`
	MaxZoom     int    `json:"max_zoom,omitempty" msgpack:"max_zoom,omitempty"`
}

// Icon describes the pin drawn for a marker; anchors are pixel offsets.
type Icon struct {
	ClassName   string `json:"class_name" msgpack:"class_name"`
	Shape       string `json:"shape" msgpack:"shape"`
	Color       string `json:"color" msgpack:"color"`
	IconAnchor  [2]int `json:"icon_anchor" msgpack:"icon_anchor"`
	PopupAnchor [2]int `json:"popup_anchor" msgpack:"popup_anchor"`
}

type Marker struct {
	Position markers.Position     `json:"position" msgpack:"position"`
	Title    string               `json:"title" msgpack:"title"`
	Icon     Icon                 `json:"icon" msgpack:"icon"`
	Popup    []markers.PopupEntry `json:"popup" msgpack:"popup"`
}

// Layer is one entry of a surface, as exposed to clients.
type Layer struct {
	ID     LayerID    `json:"id" msgpack:"id"`
	Kind   LayerKind  `json:"kind" msgpack:"kind"`
	Tile   *TileLayer `json:"tile,omitempty" msgpack:"tile,omitempty"`
	Marker *Marker    `json:"marker,omitempty" msgpack:"marker,omitempty"`
}

// Surface is the mapping capability a State drives. Implementations need not be safe for
// concurrent use; State serializes every call.
type Surface interface {
	SetView(center markers.Position, zoom int)
	View() (markers.Position, int)
	AddTileLayer(t TileLayer) LayerID
	AddMarker(m Marker) LayerID
	EachLayer(fn func(id LayerID))
	RemoveLayer(id LayerID)
	Layers() []Layer
}

// MemorySurface keeps layers in memory so they can be mirrored by a client renderer.
type MemorySurface struct {
	center markers.Position
	zoom   int
	nextID LayerID
	layers map[LayerID]Layer
}

func NewMemorySurface() *MemorySurface {
	return &MemorySurface{layers: make(map[LayerID]Layer)}
}

func (m *MemorySurface) SetView(center markers.Position, zoom int) {
	m.center = center
	m.zoom = zoom
}

func (m *MemorySurface) View() (markers.Position, int) {
	return m.center, m.zoom
}

func (m *MemorySurface) AddTileLayer(t TileLayer) LayerID {
	return m.add(Layer{Kind: LayerTile, Tile: &t})
}

func (m *MemorySurface) AddMarker(mk Marker) LayerID {
	return m.add(Layer{Kind: LayerMarker, Marker: &mk})
}

func (m *MemorySurface) add(l Layer) LayerID {
	m.nextID++
	l.ID = m.nextID
	m.layers[l.ID] = l
	return l.ID
}

// EachLayer visits a snapshot of the current ids, so fn may remove layers.
func (m *MemorySurface) EachLayer(fn func(id LayerID)) {
	for _, l := range m.Layers() {
		fn(l.ID)
	}
}

func (m *MemorySurface) RemoveLayer(id LayerID) {
	delete(m.layers, id)
}

// Layers returns layers in insertion order.
func (m *MemorySurface) Layers() []Layer {
	out := make([]Layer, 0, len(m.layers))
	for _, l := range m.layers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
