package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/userfeed/pkg/cache"
	"github.com/Sternrassler/userfeed/pkg/pagination"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// streamIDs hands out stream identities, unique per process.
var streamIDs atomic.Uint64

type fetchKind int

const (
	fetchFirst fetchKind = iota
	fetchRetry
	fetchNext
)

func (k fetchKind) String() string {
	switch k {
	case fetchFirst:
		return "first"
	case fetchRetry:
		return "retry"
	default:
		return "next"
	}
}

// InfiniteQuery is a cursor-paginated stream backed by a Client.
// It implements pagination.Stream.
type InfiniteQuery[T any] struct {
	client *Client
	key    cache.QueryKey
	fetch  pagination.FetchFunc[T]
	id     uint64
	logger zerolog.Logger

	// inflight admits one fetch at a time; a second request is dropped
	inflight *semaphore.Weighted

	mu      sync.Mutex
	gen     uint64 // bumped by reset, stale responses are discarded
	version uint64
	state   pagination.State
	enabled bool
	enables int // outstanding SetEnabled(true) calls
	removed bool
	pages   []pagination.Page[T]
	err     error
	subs    map[int]func()
	nextSub int
}

var _ pagination.Stream[struct{}] = (*InfiniteQuery[struct{}])(nil)

func newInfiniteQuery[T any](c *Client, key cache.QueryKey, fetch pagination.FetchFunc[T]) *InfiniteQuery[T] {
	return &InfiniteQuery[T]{
		client:   c,
		key:      key,
		fetch:    fetch,
		id:       streamIDs.Add(1),
		logger:   c.logger.With().Str("key", key.String()).Logger(),
		inflight: semaphore.NewWeighted(1),
		state:    pagination.StateIdle,
		subs:     make(map[int]func()),
	}
}

// Key returns the query key.
func (q *InfiniteQuery[T]) Key() cache.QueryKey {
	return q.key
}

// Snapshot returns the current state of the stream.
func (q *InfiniteQuery[T]) Snapshot() pagination.Snapshot[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.pages)
	return pagination.Snapshot[T]{
		Revision: pagination.Revision{Stream: q.id, Version: q.version},
		State:    q.state,
		Enabled:  q.enabled,
		Pages:    q.pages[:n:n],
		Err:      q.err,
	}
}

// SetEnabled gates network activity. Holders sharing a query each enable
// and disable it once; the query stays enabled while any holder has it
// enabled. Enabling an idle query starts its first page fetch. Disabling
// does not cancel a fetch in flight; its response is still stored.
func (q *InfiniteQuery[T]) SetEnabled(enabled bool) {
	q.mu.Lock()
	if q.removed {
		q.mu.Unlock()
		return
	}
	if enabled {
		q.enables++
	} else if q.enables > 0 {
		q.enables--
	}
	if enabled = q.enables > 0; enabled == q.enabled {
		q.mu.Unlock()
		return
	}
	q.enabled = enabled
	q.version++
	idle := q.state == pagination.StateIdle
	q.mu.Unlock()

	q.logger.Debug().Bool("enabled", enabled).Msg("Query enabled state changed")

	if enabled && idle {
		q.launch(fetchFirst)
	}
}

// FetchNextPage starts fetching the page after the last one.
func (q *InfiniteQuery[T]) FetchNextPage() bool {
	return q.launch(fetchNext)
}

// Retry restarts a query whose first page failed.
func (q *InfiniteQuery[T]) Retry() bool {
	return q.launch(fetchRetry)
}

// Subscribe registers fn to run after every state change caused by a fetch.
// fn runs on a fetch goroutine and must not block.
func (q *InfiniteQuery[T]) Subscribe(fn func()) func() {
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}

// canLaunch reports whether a fetch of kind may start. Caller holds q.mu.
func (q *InfiniteQuery[T]) canLaunch(kind fetchKind) bool {
	if q.removed || !q.enabled {
		return false
	}
	switch kind {
	case fetchFirst:
		return q.state == pagination.StateIdle
	case fetchRetry:
		return q.state == pagination.StateFailed
	default:
		n := len(q.pages)
		return q.state == pagination.StateLoaded && n > 0 && q.pages[n-1].HasNext()
	}
}

// launch starts a fetch goroutine if kind is allowed and none is in flight.
func (q *InfiniteQuery[T]) launch(kind fetchKind) bool {
	if !q.inflight.TryAcquire(1) {
		queryDroppedFetchesTotal.WithLabelValues(q.key.Resource).Inc()
		q.logger.Debug().Stringer("kind", kind).Msg("Fetch dropped, another is in flight")
		return false
	}

	q.mu.Lock()
	if !q.canLaunch(kind) || !q.client.track() {
		q.mu.Unlock()
		q.inflight.Release(1)
		return false
	}

	var cursor pagination.Cursor
	if kind == fetchNext {
		cursor = q.pages[len(q.pages)-1].NextCursor
		q.state = pagination.StateFetchingNext
	} else {
		q.pages = nil
		q.state = pagination.StateLoading
	}
	q.version++
	gen := q.gen
	q.mu.Unlock()

	go q.run(kind, gen, cursor)
	return true
}

func (q *InfiniteQuery[T]) run(kind fetchKind, gen uint64, cursor pagination.Cursor) {
	defer q.client.wg.Done()

	// Publish the loading state
	q.notify()

	ctx, cancel := context.WithTimeout(q.client.ctx, q.client.cfg.FetchTimeout)
	start := time.Now()
	page, source, err := q.load(ctx, gen, cursor)
	cancel()

	queryFetchDuration.WithLabelValues(q.key.Resource).Observe(time.Since(start).Seconds())
	queryFetchesTotal.WithLabelValues(q.key.Resource, source).Inc()

	q.inflight.Release(1)

	if q.finish(kind, gen, page, err) {
		q.launch(fetchFirst)
	}
}

// load returns the page at cursor from the cache or the fetcher.
func (q *InfiniteQuery[T]) load(ctx context.Context, gen uint64, cursor pagination.Cursor) (pagination.Page[T], string, error) {
	pages := q.client.cfg.Cache

	if pages != nil {
		entry, err := pages.Get(ctx, q.key, string(cursor))
		switch {
		case err == nil:
			page, decodeErr := cache.EntryToPage[T](entry)
			if decodeErr == nil {
				q.logger.Debug().
					Str("cursor", string(cursor)).
					Bool("terminal", entry.Terminal()).
					Msg("Page served from cache")
				return page, "cache", nil
			}
			q.logger.Warn().Err(decodeErr).Str("cursor", string(cursor)).Msg("Discarding undecodable cached page")
		case !errors.Is(err, cache.ErrCacheMiss):
			q.logger.Warn().Err(err).Msg("Page cache lookup failed")
		}
	}

	page, err := q.fetch(ctx, cursor)
	if err != nil {
		return pagination.Page[T]{}, "error", err
	}

	if pages != nil && q.current(gen) {
		entry, err := cache.NewPageEntry(page, q.client.cfg.PageTTL)
		if err == nil {
			err = pages.Set(ctx, q.key, string(cursor), entry)
		}
		if err != nil {
			q.logger.Warn().Err(err).Msg("Failed to cache page")
		}
	}
	return page, "api", nil
}

// current reports whether responses of gen are still wanted.
func (q *InfiniteQuery[T]) current(gen uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.removed && q.gen == gen
}

// finish applies a fetch result and reports whether the query was reset
// while the fetch ran and must start over.
func (q *InfiniteQuery[T]) finish(kind fetchKind, gen uint64, page pagination.Page[T], err error) bool {
	q.mu.Lock()
	if q.removed || q.gen != gen {
		restart := !q.removed && q.enabled && q.state == pagination.StateIdle
		q.mu.Unlock()
		queryDiscardedResponsesTotal.WithLabelValues(q.key.Resource).Inc()
		q.logger.Warn().Stringer("kind", kind).Msg("Discarding response of a removed or reset query")
		return restart
	}

	if err != nil {
		q.err = err
		if kind == fetchNext {
			// Pages and the cursor stay as last known
			q.state = pagination.StateLoaded
		} else {
			q.state = pagination.StateFailed
		}
	} else {
		q.err = nil
		q.pages = append(q.pages, page)
		q.state = pagination.StateLoaded
	}
	q.version++
	pages := len(q.pages)
	hasNext := pages > 0 && q.pages[pages-1].HasNext()
	q.mu.Unlock()

	if err != nil {
		q.logger.Error().Err(err).Stringer("kind", kind).Msg("Page fetch failed")
	} else {
		q.logger.Info().
			Stringer("kind", kind).
			Int("items", len(page.Items)).
			Int("pages", pages).
			Bool("has_next", hasNext).
			Msg("Page loaded")
	}

	q.notify()
	return false
}

// notify calls every subscriber. Caller must not hold q.mu.
func (q *InfiniteQuery[T]) notify() {
	q.mu.Lock()
	fns := make([]func(), 0, len(q.subs))
	for _, fn := range q.subs {
		fns = append(fns, fn)
	}
	q.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// detach marks the query removed; pending responses will be discarded.
func (q *InfiniteQuery[T]) detach() {
	q.mu.Lock()
	q.removed = true
	q.enabled = false
	q.enables = 0
	q.subs = make(map[int]func())
	q.mu.Unlock()
}

// reset drops every page and refetches from the first page if enabled.
func (q *InfiniteQuery[T]) reset() {
	q.mu.Lock()
	if q.removed {
		q.mu.Unlock()
		return
	}
	q.gen++
	q.version++
	q.pages = nil
	q.err = nil
	q.state = pagination.StateIdle
	enabled := q.enabled
	q.mu.Unlock()

	q.logger.Debug().Msg("Query reset")

	if enabled {
		// A fetch in flight restarts the query when it completes
		q.launch(fetchFirst)
	}
}
