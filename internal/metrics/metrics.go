package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biasaudit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "biasaudit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"method", "route"},
	)

	// Audit metrics
	ReportsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biasaudit",
			Subsystem: "audit",
			Name:      "reports_total",
			Help:      "Bias reports computed, by dataset origin",
		},
		[]string{"origin"},
	)

	ActiveRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "biasaudit",
			Subsystem: "audit",
			Name:      "active_records",
			Help:      "Records in the active dataset",
		},
	)

	IngestionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biasaudit",
			Subsystem: "dataset",
			Name:      "ingestion_failures_total",
			Help:      "Rejected uploads, by file format",
		},
		[]string{"format"},
	)

	// Analysis metrics
	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biasaudit",
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Analysis requests, by outcome",
		},
		[]string{"provider", "outcome"},
	)

	AnalysisLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "biasaudit",
			Subsystem: "analysis",
			Name:      "latency_seconds",
			Help:      "Analysis provider round trip",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"provider"},
	)
)

// Analysis outcomes
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeBusy        = "busy"
	OutcomeRateLimited = "rate_limited"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
