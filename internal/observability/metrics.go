package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	reviewPassSeconds     *prometheus.HistogramVec
	reviewPassFailures    *prometheus.CounterVec
	plagiarismChecksTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feedback_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		reviewPassSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feedback_review_pass_seconds",
			Help:    "Duration of individual multi-agent review passes.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"pass"})

		reviewPassFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_review_pass_failures_total",
			Help: "Number of review passes that failed or returned malformed output.",
		}, []string{"pass"})

		plagiarismChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_plagiarism_checks_total",
			Help: "Number of plagiarism evaluations, labelled by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			reviewPassSeconds,
			reviewPassFailures,
			plagiarismChecksTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ReviewPassDuration exposes the histogram for review pass durations.
func ReviewPassDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return reviewPassSeconds
}

// ReviewPassFailures exposes the counter for failed review passes.
func ReviewPassFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewPassFailures
}

// PlagiarismChecks exposes the counter for plagiarism evaluations.
func PlagiarismChecks() *prometheus.CounterVec {
	RegisterMetrics()
	return plagiarismChecksTotal
}
