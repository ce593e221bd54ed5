package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for feed API calls.
var (
	feedRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_api_requests_total",
		Help: "Total feed API requests by procedure and status",
	}, []string{"procedure", "status"})

	feedRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_api_request_duration_seconds",
		Help:    "Feed API request duration in seconds by procedure",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"procedure"})

	feedErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_api_errors_total",
		Help: "Total feed API errors by class",
	}, []string{"class"})

	feedRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_api_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	feedRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_api_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	feedRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_api_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)
