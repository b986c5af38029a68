// Package metrics provides Prometheus instrumentation for the stock gateway.
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
	// SearchesTotal counts symbol searches served.
	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockgw_searches_total",
		Help: "Total number of symbol searches",
	})

	// CatalogLoadFailures counts snapshot loads skipped during search,
	// partitioned by market code.
	CatalogLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgw_catalog_load_failures_total",
		Help: "Catalog loads skipped because the snapshot was missing or corrupt",
	}, []string{"market"})

	// BacktestsTotal counts backtest requests, partitioned by outcome.
	BacktestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgw_backtests_total",
		Help: "Total number of DCA backtest requests",
	}, []string{"status"})

	// RefreshRuns counts snapshot refresh runs, partitioned by outcome.
	RefreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgw_refresh_runs_total",
		Help: "Snapshot refresh runs",
	}, []string{"status"})

	// RefreshDuration tracks how long a full snapshot refresh takes.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockgw_refresh_duration_seconds",
		Help:    "Duration of a full snapshot refresh in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockgw_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockgw_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgw_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockgw_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
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

		// Use the raw path for the label; the route surface is small and
		// parameter-free, so cardinality stays bounded.
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
