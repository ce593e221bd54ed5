package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested page was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// scanBatch is the COUNT hint used when invalidating a query.
const scanBatch = 100

// Manager handles page caching with Redis backend.
type Manager struct {
	redis *redis.Client
}

// NewManager creates a new cache manager with Redis backend.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis: redisClient,
	}
}

// Get retrieves the page of key fetched with cursor.
// Returns ErrCacheMiss if the page doesn't exist or is expired.
func (m *Manager) Get(ctx context.Context, key QueryKey, cursor string) (*PageEntry, error) {
	pageKey := key.PageKey(cursor)

	data, err := m.redis.Get(ctx, pageKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry PageEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.Stale() {
		_ = m.Delete(ctx, key, cursor)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Set stores a page with TTL based on the entry's Expires field.
func (m *Manager) Set(ctx context.Context, key QueryKey, cursor string, entry *PageEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		// Already expired, don't cache
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.PageKey(cursor), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CachedPageBytes.Observe(float64(len(data)))
	return nil
}

// Delete removes a single cached page.
func (m *Manager) Delete(ctx context.Context, key QueryKey, cursor string) error {
	if err := m.redis.Del(ctx, key.PageKey(cursor)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Invalidate removes every cached page of key and returns how many were removed.
func (m *Manager) Invalidate(ctx context.Context, key QueryKey) (int, error) {
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := m.redis.Scan(ctx, cursor, key.pagePattern(), scanBatch).Result()
		if err != nil {
			CacheErrors.WithLabelValues("invalidate").Inc()
			return removed, fmt.Errorf("redis scan: %w", err)
		}

		if len(keys) > 0 {
			n, err := m.redis.Del(ctx, keys...).Result()
			if err != nil {
				CacheErrors.WithLabelValues("invalidate").Inc()
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += int(n)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	CacheInvalidations.Inc()
	return removed, nil
}
