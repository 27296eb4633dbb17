package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mapsview/core-go/internal/markers"
)

type configurationList struct {
	Configurations []string `json:"configurations" msgpack:"configurations"`
}

type markerPreview struct {
	Configuration string               `json:"configuration" msgpack:"configuration"`
	Parent        string               `json:"parent" msgpack:"parent"`
	Markers       []markers.Descriptor `json:"markers" msgpack:"markers"`
}

func (h *Handler) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	if h.configurations == nil {
		h.writeError(w, http.StatusServiceUnavailable, "config_unavailable", "map configuration source not configured", nil)
		return
	}

	names, err := h.configurations.List(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	h.writeNegotiated(w, r, http.StatusOK, configurationList{Configurations: names})
}

func (h *Handler) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	if h.configurations == nil {
		h.writeError(w, http.StatusServiceUnavailable, "config_unavailable", "map configuration source not configured", nil)
		return
	}

	cfg, err := h.configurations.Resolve(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeNegotiated(w, r, http.StatusOK, cfg)
}

// handlePreviewMarkers runs the whole pipeline for one configuration and parent without
// touching any open view.
func (h *Handler) handlePreviewMarkers(w http.ResponseWriter, r *http.Request) {
	if h.pipeline == nil {
		h.writeError(w, http.StatusServiceUnavailable, "pipeline_unavailable", "marker pipeline not configured", nil)
		return
	}

	parent := strings.TrimSpace(r.URL.Query().Get("parent"))
	if parent == "" {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "parent is required", map[string]any{"field": "parent"})
		return
	}

	cfg, descs, err := h.pipeline.Preview(r.Context(), chi.URLParam(r, "name"), parent)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if descs == nil {
		descs = []markers.Descriptor{}
	}
	h.writeNegotiated(w, r, http.StatusOK, markerPreview{Configuration: cfg.Name, Parent: parent, Markers: descs})
}
