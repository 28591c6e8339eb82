// Package metrics provides Prometheus instrumentation for the arbitrage engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersIngested counts order rows accepted, partitioned by outcome:
	// "modified" rows actually changed the store, "unchanged" were no-ops.
	OrdersIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aodx_orders_ingested_total",
		Help: "Total order rows processed by ingestion",
	}, []string{"outcome"})

	// IngestRejections counts batches rejected by validation.
	IngestRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aodx_ingest_rejections_total",
		Help: "Order batches rejected by validation",
	})

	// ComputeLatency tracks opportunity computation latency per matcher.
	ComputeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aodx_compute_latency_seconds",
		Help:    "Opportunity computation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"matcher"})

	// OpportunitiesFound tracks match counts from the last computation.
	OpportunitiesFound = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "aodx_opportunities_found",
		Help: "Opportunities found by the most recent computation",
	}, []string{"matcher"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aodx_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aodx_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aodx_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; route cardinality is small here.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
