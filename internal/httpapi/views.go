package httpapi

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mapsview/core-go/internal/mapconfig"
	"mapsview/core-go/internal/markers"
	"mapsview/core-go/internal/records"
	"mapsview/core-go/internal/relation"
	"mapsview/core-go/internal/viewer"
)

type openViewRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type selectConfigurationRequest struct {
	Name string `json:"name"`
}

type selectParentRequest struct {
	Parent string `json:"parent"`
}

type parentSelected struct {
	View    viewer.View `json:"view" msgpack:"view"`
	Markers int         `json:"markers" msgpack:"markers"`
}

func (h *Handler) handleOpenView(w http.ResponseWriter, r *http.Request) {
	var req openViewRequest
	if err := decodeJSONStrict(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", nil)
		return
	}

	var hint *markers.Position
	switch {
	case req.Latitude == nil && req.Longitude == nil:
	case req.Latitude == nil || req.Longitude == nil:
		h.writeError(w, http.StatusBadRequest, "validation_failed", "latitude and longitude must be given together", nil)
		return
	default:
		pos := markers.Position{Lat: *req.Latitude, Lng: *req.Longitude}
		if !pos.Finite() || math.Abs(pos.Lat) > 90 || math.Abs(pos.Lng) > 180 {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "position out of range", map[string]any{"latitude": pos.Lat, "longitude": pos.Lng})
			return
		}
		hint = &pos
	}

	s := h.views.Open(r.Context(), hint)
	w.Header().Set("Location", "/api/v1/views/"+s.ID())
	h.writeNegotiated(w, r, http.StatusCreated, s.View())
}

func (h *Handler) handleGetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeNegotiated(w, r, http.StatusOK, s.View())
}

func (h *Handler) handleCloseView(w http.ResponseWriter, r *http.Request) {
	if !h.views.Close(chi.URLParam(r, "id")) {
		h.writeError(w, http.StatusNotFound, "view_not_found", "view not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSelectConfiguration(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req selectConfigurationRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "name is required", map[string]any{"field": "name"})
		return
	}

	if _, err := s.SelectConfiguration(r.Context(), req.Name); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeNegotiated(w, r, http.StatusOK, s.View())
}

func (h *Handler) handleSelectParent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req selectParentRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", nil)
		return
	}
	req.Parent = strings.TrimSpace(req.Parent)

	n, err := s.SelectParent(r.Context(), req.Parent)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeNegotiated(w, r, http.StatusOK, parentSelected{View: s.View(), Markers: n})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*viewer.Session, bool) {
	if h.views == nil {
		h.writeError(w, http.StatusServiceUnavailable, "views_unavailable", "view registry not configured", nil)
		return nil, false
	}
	s, ok := h.views.Get(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "view_not_found", "view not found", nil)
		return nil, false
	}
	return s, true
}

// writeDomainError maps pipeline and session errors onto the error envelope.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var invalid *mapconfig.InvalidError
	var source *records.DataSourceError

	switch {
	case errors.Is(err, relation.ErrEmptyParent):
		h.writeError(w, http.StatusBadRequest, "validation_failed", "parent is required", map[string]any{"field": "parent"})
	case errors.Is(err, mapconfig.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "map configuration not found", nil)
	case errors.As(err, &invalid):
		h.writeError(w, http.StatusUnprocessableEntity, "invalid_configuration", invalid.Error(), map[string]any{"field": invalid.Field})
	case errors.Is(err, mapconfig.ErrInvalidConfiguration):
		h.writeError(w, http.StatusUnprocessableEntity, "invalid_configuration", err.Error(), nil)
	case errors.As(err, &source):
		h.log.Error().Err(err).Str("doctype", source.Doctype).Msg("record source failed")
		h.writeError(w, http.StatusBadGateway, "data_source_error", "failed to load records", map[string]any{"doctype": source.Doctype})
	case errors.Is(err, records.ErrDataSource):
		h.log.Error().Err(err).Msg("record source failed")
		h.writeError(w, http.StatusBadGateway, "data_source_error", "failed to load records", nil)
	case errors.Is(err, viewer.ErrNoConfiguration):
		h.writeError(w, http.StatusConflict, "no_configuration", "select a map configuration first", nil)
	case errors.Is(err, viewer.ErrSuperseded):
		h.writeError(w, http.StatusConflict, "superseded", "a newer selection replaced this one", nil)
	default:
		h.log.Error().Err(err).Msg("map view request failed")
		h.writeError(w, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
