// Package cache provides a Redis-backed page cache for paginated queries.
//
// Each fetched page is stored under its query key and the cursor it was
// fetched with, so a stream can be rebuilt page by page without hitting the
// API again while the entries are fresh.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.QueryKey{
//		Resource: "posts.posts",
//		Params:   map[string]string{"userId": "u1", "limit": "4", "filter": "all"},
//	}
//
//	entry, err := manager.Get(ctx, key, "")
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch the first page from the API, then
//		entry, _ = cache.NewPageEntry(page, cache.DefaultTTL)
//		_ = manager.Set(ctx, key, "", entry)
//	}
//	page, err := cache.EntryToPage[feed.Post](entry)
//
// # Invalidation
//
// Invalidate drops every page of a query, used when the user asks for a
// fresh listing:
//
//	removed, err := manager.Invalidate(ctx, key)
//
// # Metrics
//
//   - feed_page_cache_hits_total{layer="redis"} - Cache hits
//   - feed_page_cache_misses_total - Cache misses
//   - feed_page_cache_entry_bytes - Size of stored entries
//   - feed_page_cache_invalidations_total - Query invalidations
//   - feed_page_cache_errors_total{operation} - Cache operation errors
package cache
