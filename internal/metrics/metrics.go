package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	pipelineDuration    prometheus.Histogram
	recordsFetched      prometheus.Counter
	recordsSkipped      prometheus.Counter
	markersRendered     prometheus.Counter
	refreshes           prometheus.Counter
	staleResults        prometheus.Counter
	activeViews         prometheus.Gauge
}

// New creates a fresh Metrics registry with HTTP and map pipeline metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapsview",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by mapsview",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapsview",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by mapsview",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	pipelineDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapsview",
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of filter, fetch and projection for one parent selection",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	recordsFetched := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapsview",
		Name:      "records_fetched_total",
		Help:      "Child records returned by the record source",
	})

	recordsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapsview",
		Name:      "records_skipped_total",
		Help:      "Child records dropped for missing or unusable coordinates",
	})

	markersRendered := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapsview",
		Name:      "markers_rendered_total",
		Help:      "Markers drawn onto view maps",
	})

	refreshes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapsview",
		Name:      "map_refreshes_total",
		Help:      "Full clear-and-redraw operations applied to view maps",
	})

	staleResults := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapsview",
		Name:      "stale_results_discarded_total",
		Help:      "Pipeline results dropped because a newer selection superseded them",
	})

	activeViews := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapsview",
		Name:      "active_views",
		Help:      "Open map view sessions",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		pipelineDuration,
		recordsFetched,
		recordsSkipped,
		markersRendered,
		refreshes,
		staleResults,
		activeViews,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		pipelineDuration:    pipelineDuration,
		recordsFetched:      recordsFetched,
		recordsSkipped:      recordsSkipped,
		markersRendered:     markersRendered,
		refreshes:           refreshes,
		staleResults:        staleResults,
		activeViews:         activeViews,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveProjection records one pipeline run: how many records came back and how many
// became markers.
func (m *Metrics) ObserveProjection(fetched, projected int, duration time.Duration) {
	if m == nil {
		return
	}
	m.recordsFetched.Add(float64(fetched))
	if skipped := fetched - projected; skipped > 0 {
		m.recordsSkipped.Add(float64(skipped))
	}
	m.pipelineDuration.Observe(duration.Seconds())
}

// ObserveRefresh records a map refresh that drew n markers.
func (m *Metrics) ObserveRefresh(n int) {
	if m == nil {
		return
	}
	m.refreshes.Inc()
	m.markersRendered.Add(float64(n))
}

func (m *Metrics) IncStaleResult() {
	if m == nil {
		return
	}
	m.staleResults.Inc()
}

func (m *Metrics) SetActiveViews(n int) {
	if m == nil {
		return
	}
	m.activeViews.Set(float64(n))
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
