// Package metrics exposes the Prometheus metrics of the feed packages.
// Metrics are defined and registered via promauto in the packages that
// record them (client, cache, ratelimit, query, userpage); this package
// serves them and documents what exists.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the registerer every feed metric is registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer the handler serves from.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
// It returns the bound address once listening.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) (net.Addr, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", ln.Addr().String()).Msg("Metrics server listening")
	return ln.Addr(), done, nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - feed_api_requests_total{procedure, status} (Counter): Calls by procedure and HTTP status
//   - feed_api_request_duration_seconds{procedure} (Histogram): Call duration including retries
//   - feed_api_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Retry Metrics (pkg/client):
//   - feed_api_retries_total{error_class} (Counter): Retry attempts by error class
//   - feed_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - feed_api_retry_exhausted_total{error_class} (Counter): Calls that exhausted their retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - feed_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - feed_rate_limit_blocks_total (Counter): Requests blocked at the critical threshold
//   - feed_rate_limit_throttles_total (Counter): Requests delayed at the warning threshold
//
// Page Cache Metrics (pkg/cache):
//   - feed_page_cache_hits_total{layer="redis"} (Counter): Page cache hits
//   - feed_page_cache_misses_total (Counter): Page cache misses
//   - feed_page_cache_entry_bytes (Histogram): Encoded size of stored pages
//   - feed_page_cache_invalidations_total (Counter): Query invalidations
//   - feed_page_cache_errors_total{operation} (Counter): Redis failures by operation
//
// Query Metrics (pkg/query):
//   - feed_query_fetches_total{resource, source} (Counter): Completed fetches (api, cache, error)
//   - feed_query_fetch_duration_seconds{resource} (Histogram): Fetch duration
//   - feed_query_dropped_fetches_total{resource} (Counter): Fetches dropped while one was in flight
//   - feed_query_discarded_responses_total{resource} (Counter): Responses for removed or reset queries
//   - feed_queries_active (Gauge): Registered queries
//
// Coordinator Metrics (pkg/userpage):
//   - feed_scroll_triggers_total{tab, result} (Counter): Scroll edges by outcome (fetched, ignored)
//   - feed_tab_switches_total{tab} (Counter): Tab activations
//
// Example Prometheus Queries:
//
//   # Page cache hit rate
//   sum(rate(feed_page_cache_hits_total[5m])) /
//   (sum(rate(feed_page_cache_hits_total[5m])) + sum(rate(feed_page_cache_misses_total[5m])))
//
//   # Share of scroll edges that started a fetch
//   sum(rate(feed_scroll_triggers_total{result="fetched"}[5m])) / sum(rate(feed_scroll_triggers_total[5m]))
//
//   # P95 page fetch latency
//   histogram_quantile(0.95, rate(feed_query_fetch_duration_seconds_bucket[5m]))
