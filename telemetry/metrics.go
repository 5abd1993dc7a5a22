// Package telemetry registers the Prometheus metrics exported at /metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPRequests counts HTTP requests by method, route and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamfusion_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks HTTP request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "streamfusion_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

// AggregationDuration tracks how long a home view derivation takes.
var AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "streamfusion_aggregation_duration_seconds",
	Help:    "Time spent deriving catalog views.",
	Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
})

// CatalogItems is the item count seen by the last aggregation pass.
var CatalogItems = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "streamfusion_catalog_items",
	Help: "Items in the catalog at the last aggregation.",
})

// Imports counts metadata imports by media type and result.
var Imports = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamfusion_imports_total",
	Help: "Metadata imports by media type and result.",
}, []string{"media_type", "result"})

// PlaybackRequests counts resolved playback plans by source kind.
var PlaybackRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamfusion_playback_requests_total",
	Help: "Playback plans served by source kind.",
}, []string{"kind"})

// BrokenSources is the number of sources that failed their last check.
var BrokenSources = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "streamfusion_broken_sources",
	Help: "Video sources failing their last health check.",
})

// AuthEvents counts auth events by type and result.
var AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamfusion_auth_events_total",
	Help: "Auth events by type.",
}, []string{"event", "result"})

// JobRuns counts scheduled job runs by job and result.
var JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamfusion_job_runs_total",
	Help: "Scheduled job runs by name and result.",
}, []string{"job", "result"})

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Result labels a success or failure for counters.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
