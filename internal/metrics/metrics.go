// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dca_backtest"

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// Simulation
var (
	SimulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulations_total",
		Help:      "Simulated paths by instrument kind",
	}, []string{"kind"})

	ComparisonRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comparison_runs_total",
		Help:      "Comparison runs by status",
	}, []string{"status"})

	ComparisonDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "comparison_duration_seconds",
		Help:      "Wall time of a full comparison run",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

// RecordRequest records a finished HTTP request.
func RecordRequest(route, method, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordSimulations counts n simulated paths of the given kind.
func RecordSimulations(kind string, n int) {
	SimulationsTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordComparison records a comparison run.
// status should be one of: "success", "failure"
func RecordComparison(status string, seconds float64) {
	ComparisonRunsTotal.WithLabelValues(status).Inc()
	ComparisonDuration.Observe(seconds)
}
