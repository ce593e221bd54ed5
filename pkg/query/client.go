package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/userfeed/pkg/cache"
	"github.com/Sternrassler/userfeed/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrQueryClosed is returned when registering a query on a closed client.
var ErrQueryClosed = errors.New("query client closed")

// Config holds the query client configuration.
type Config struct {
	// Cache backs fetched pages in Redis (optional)
	Cache *cache.Manager

	// PageTTL is how long a fetched page is served from Cache
	PageTTL time.Duration

	// FetchTimeout bounds a single page fetch including retries
	FetchTimeout time.Duration

	// Logger overrides the component logger (optional)
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration without a page cache.
func DefaultConfig() Config {
	return Config{
		PageTTL:      cache.DefaultTTL,
		FetchTimeout: 30 * time.Second,
	}
}

// Options configure a query when it is first registered.
type Options struct {
	// Enabled starts the first page fetch immediately.
	Enabled bool
}

// registered is the type-erased view of an InfiniteQuery held by the client.
type registered interface {
	detach()
	reset()
}

// handle is a registered query and the number of holders that acquired it.
type handle struct {
	query registered
	refs  int
}

// Client owns queries and the goroutines that fetch their pages.
type Client struct {
	cfg    Config
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	queries map[string]*handle
	closed  bool
}

// NewClient creates a query client.
func NewClient(cfg Config) *Client {
	if cfg.PageTTL <= 0 {
		cfg.PageTTL = cache.DefaultTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	logger := log.With().Str("component", "query-client").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:     cfg,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		queries: make(map[string]*handle),
	}
}

// Infinite acquires the query registered under key, creating it with fetch
// and opts if there is none. Options only apply on creation. Every call
// must be paired with a Remove of the same key.
func Infinite[T any](c *Client, key cache.QueryKey, fetch pagination.FetchFunc[T], opts Options) (*InfiniteQuery[T], error) {
	if fetch == nil {
		return nil, fmt.Errorf("fetch function is required")
	}
	id := key.String()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrQueryClosed
	}
	if h, ok := c.queries[id]; ok {
		q, ok := h.query.(*InfiniteQuery[T])
		if !ok {
			c.mu.Unlock()
			return nil, fmt.Errorf("query %s is registered with a different item type", id)
		}
		h.refs++
		c.mu.Unlock()
		return q, nil
	}

	q := newInfiniteQuery(c, key, fetch)
	c.queries[id] = &handle{query: q, refs: 1}
	c.mu.Unlock()

	queriesActive.Inc()
	c.logger.Debug().Str("key", id).Bool("enabled", opts.Enabled).Msg("Query registered")

	if opts.Enabled {
		q.SetEnabled(true)
	}
	return q, nil
}

// Remove releases one acquisition of the query under key. The last
// release unregisters it; responses still in flight for it are then
// discarded. Remove does not wait for them.
func (c *Client) Remove(key cache.QueryKey) {
	id := key.String()

	c.mu.Lock()
	h, ok := c.queries[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	h.refs--
	if h.refs > 0 {
		refs := h.refs
		c.mu.Unlock()
		c.logger.Debug().Str("key", id).Int("refs", refs).Msg("Query released")
		return
	}
	delete(c.queries, id)
	c.mu.Unlock()

	h.query.detach()
	queriesActive.Dec()
	c.logger.Debug().Str("key", id).Msg("Query removed")
}

// Invalidate drops the cached pages of key and restarts its query from the
// first page if it is enabled.
func (c *Client) Invalidate(ctx context.Context, key cache.QueryKey) error {
	if c.cfg.Cache != nil {
		n, err := c.cfg.Cache.Invalidate(ctx, key)
		if err != nil {
			return fmt.Errorf("invalidate %s: %w", key, err)
		}
		c.logger.Debug().Str("key", key.String()).Int("pages", n).Msg("Cached pages invalidated")
	}

	c.mu.Lock()
	h, ok := c.queries[key.String()]
	c.mu.Unlock()

	if ok {
		h.query.reset()
	}
	return nil
}

// Len returns the number of registered queries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

// Close removes every query, cancels in-flight fetches and waits for their
// goroutines to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	queries := c.queries
	c.queries = make(map[string]*handle)
	c.mu.Unlock()

	c.cancel()
	for _, h := range queries {
		h.query.detach()
		queriesActive.Dec()
	}
	c.wg.Wait()
	return nil
}

// track accounts for a fetch goroutine about to start.
// It reports false once the client is closed.
func (c *Client) track() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	return true
}
