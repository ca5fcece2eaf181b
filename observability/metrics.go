// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the tiles server.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// MovesTotal counts move attempts by direction and whether the board changed.
	MovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiles_moves_total",
			Help: "Move attempts",
		},
		[]string{"direction", "changed"},
	)

	// SpawnsTotal counts tiles spawned after changing moves.
	SpawnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tiles_spawns_total",
			Help: "Spawned tiles",
		},
	)

	// SessionsActive tracks the number of live game sessions.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tiles_sessions_active",
			Help: "Active sessions",
		},
	)

	// WebSocketViewers tracks open websocket connections across all sessions.
	WebSocketViewers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tiles_websocket_viewers",
			Help: "Connected websocket viewers",
		},
	)

	// HTTPRequestsTotal counts HTTP requests by method, route and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiles_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tiles_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		MovesTotal,
		SpawnsTotal,
		SessionsActive,
		WebSocketViewers,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// RecordMove records a single move attempt and the tiles it spawned.
func RecordMove(direction string, changed bool, spawned int) {
	label := "false"
	if changed {
		label = "true"
	}
	MovesTotal.WithLabelValues(direction, label).Inc()
	if spawned > 0 {
		SpawnsTotal.Add(float64(spawned))
	}
}
