// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeInvalid  = "invalid"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
	OutcomeCompiled = "compiled"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_queries_total",
		Help: "Filter queries by data type and outcome",
	}, []string{"data_type", "outcome"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_query_duration_seconds",
		Help:    "Query execution time in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"data_type"})

	queryRows = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_query_rows",
		Help:    "Rows returned per query",
		Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
	}, []string{"data_type"})

	sessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "explorer_sessions_open",
		Help: "Database sessions currently held",
	})

	sessionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_sessions_closed_total",
		Help: "Closed sessions by cause",
	}, []string{"cause"})
)

// ObserveQuery records one executed query.
func ObserveQuery(dataType, outcome string, rows int, elapsed time.Duration) {
	queriesTotal.WithLabelValues(dataType, outcome).Inc()
	queryDuration.WithLabelValues(dataType).Observe(elapsed.Seconds())
	if outcome == OutcomeOK || outcome == OutcomeEmpty {
		queryRows.WithLabelValues(dataType).Observe(float64(rows))
	}
}

// CountQuery records a query that never reached the database.
func CountQuery(dataType, outcome string) {
	queriesTotal.WithLabelValues(dataType, outcome).Inc()
}

func SessionOpened() {
	sessionsOpen.Inc()
}

func SessionClosed(cause string) {
	sessionsOpen.Dec()
	sessionsClosed.WithLabelValues(cause).Inc()
}
