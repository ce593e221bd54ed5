package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks page cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_page_cache_hits_total",
			Help: "Total number of page cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheMisses tracks page cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_page_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// CachedPageBytes tracks the encoded size of stored pages
	CachedPageBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_page_cache_entry_bytes",
			Help:    "Size of cached page entries in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 6),
		},
	)

	// CacheInvalidations tracks query invalidations
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_page_cache_invalidations_total",
			Help: "Total number of query invalidations",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_page_cache_errors_total",
			Help: "Total number of page cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "invalidate"
	)
)
