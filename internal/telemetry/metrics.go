// Package telemetry provides application-level observability for the committee registry.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<CMT_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format and is intended to be scraped by a Prometheus server every 15–60 seconds.
// It is NOT served by the Gin router, so it sits behind neither authentication nor
// rate limiting middleware.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Ledger counters: committees created, contributions recorded (by derived payment
//     status), contributions verified, payouts created and confirmed
//   - Login attempt counter (by result)
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/committees/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as committee or membership IDs.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/committee-registry/committee-registry/internal/safego"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /api/v1/committees/:id/members),
// NOT the raw URL, to prevent unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Ledger metrics — incremented by the service layer on successful state transitions.
//
// ContributionsRecordedTotal carries the derived payment status (paid, pending, late)
// so a dashboard can show the on-time payment ratio per scrape window without
// querying the database.
//
// Example PromQL queries:
//   - Late payment ratio:      sum(rate(contributions_recorded_total{status="late"}[24h])) / sum(rate(contributions_recorded_total[24h]))
//   - Unconfirmed payout gap:  payouts_created_total - payouts_confirmed_total
var (
	CommitteesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "committees_created_total",
			Help: "Total number of committees created.",
		},
	)

	ContributionsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contributions_recorded_total",
			Help: "Total number of contributions recorded, by derived payment status.",
		},
		[]string{"status"},
	)

	ContributionsVerifiedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contributions_verified_total",
			Help: "Total number of contributions explicitly verified by an organizer.",
		},
	)

	PayoutsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payouts_created_total",
			Help: "Total number of payouts created.",
		},
	)

	PayoutsConfirmedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payouts_confirmed_total",
			Help: "Total number of payouts confirmed as received.",
		},
	)
)

// LoginAttemptsTotal is a CounterVec with label {result} ∈ {success, failure}.
// A spike in failures against a flat success rate is the usual credential-stuffing
// signal; pair it with the auth endpoint rate limiter.
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	safego.Go(func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	})
}
