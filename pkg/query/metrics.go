package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queryFetchesTotal counts completed page fetches by resource and source.
	queryFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_query_fetches_total",
			Help: "Total number of completed page fetches",
		},
		[]string{"resource", "source"}, // source: "api", "cache", "error"
	)

	queryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_query_fetch_duration_seconds",
			Help:    "Duration of page fetches including cache lookup",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	// queryDroppedFetchesTotal counts fetch requests dropped because one was in flight.
	queryDroppedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_query_dropped_fetches_total",
			Help: "Total number of fetch requests dropped while a fetch was in flight",
		},
		[]string{"resource"},
	)

	queryDiscardedResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_query_discarded_responses_total",
			Help: "Total number of responses discarded because their query was removed or reset",
		},
		[]string{"resource"},
	)

	queriesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_queries_active",
			Help: "Number of queries registered with a query client",
		},
	)
)
