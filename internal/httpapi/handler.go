package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"mapsview/core-go/internal/mapconfig"
	"mapsview/core-go/internal/metrics"
	"mapsview/core-go/internal/viewer"
)

const contentTypeMsgpack = "application/msgpack"

// Configurations lists and resolves map configurations; *mapconfig.Resolver satisfies it.
type Configurations interface {
	List(ctx context.Context) ([]string, error)
	Resolve(ctx context.Context, name string) (mapconfig.Configuration, error)
}

// Pinger reports whether the record backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Configurations Configurations
	Pipeline       *viewer.Pipeline
	Views          *viewer.Registry
	Records        Pinger
	Metrics        *metrics.Metrics
}

type Handler struct {
	log            zerolog.Logger
	configurations Configurations
	pipeline       *viewer.Pipeline
	views          *viewer.Registry
	records        Pinger
	metrics        *metrics.Metrics
}

func NewHandler(log zerolog.Logger, deps Deps) *Handler {
	return &Handler{
		log:            log,
		configurations: deps.Configurations,
		pipeline:       deps.Pipeline,
		views:          deps.Views,
		records:        deps.Records,
		metrics:        deps.Metrics,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/map-configurations", func(r chi.Router) {
				r.Get("/", h.handleListConfigurations)
				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", h.handleGetConfiguration)
					r.Get("/markers", h.handlePreviewMarkers)
				})
			})

			r.Route("/views", func(r chi.Router) {
				r.Post("/", h.handleOpenView)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.handleGetView)
					r.Delete("/", h.handleCloseView)
					r.Put("/configuration", h.handleSelectConfiguration)
					r.Put("/parent", h.handleSelectParent)
				})
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		h.metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), time.Since(start))

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http_request")
	})
}

const encodeFailedBody = `{"error":{"code":"encode_failed","message":"failed to encode response"}}` + "\n"

// writeJSON encodes before writing the header so an unencodable value becomes a 500
// instead of an empty success.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		h.log.Error().Err(err).Msg("json encode failed")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, encodeFailedBody)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

// writeNegotiated encodes v as msgpack when the client asks for it, JSON otherwise.
func (h *Handler) writeNegotiated(w http.ResponseWriter, r *http.Request, status int, v any) {
	if !strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack) {
		h.writeJSON(w, status, v)
		return
	}
	b, err := msgpack.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("msgpack encode failed")
		h.writeError(w, http.StatusInternalServerError, "encode_failed", "failed to encode msgpack", nil)
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.records == nil {
		h.writeError(w, http.StatusServiceUnavailable, "records_unavailable", "record source not configured", nil)
		return
	}
	if h.configurations == nil {
		h.writeError(w, http.StatusServiceUnavailable, "config_unavailable", "map configuration source not configured", nil)
		return
	}

	if err := h.records.Ping(ctx); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "records_unavailable", "record source not ready", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}
