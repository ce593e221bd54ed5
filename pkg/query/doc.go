// Package query is an in-process query client for cursor-paginated streams.
//
// A Client owns one InfiniteQuery per query key. Each InfiniteQuery fetches
// its pages on goroutines owned by the client, at most one at a time, and
// reports every state change to its subscribers from those goroutines.
// Pages are optionally backed by the Redis page cache, so a stream reopened
// within the page TTL is served without calling the API.
//
// Usage:
//
//	qc := query.NewClient(query.DefaultConfig())
//	defer qc.Close()
//
//	posts, err := query.Infinite(qc, feed.UserPostsKey(userID, feed.FilterAll),
//	    feed.UserPostsFetcher(api, userID, feed.FilterAll), query.Options{Enabled: true})
//	unsubscribe := posts.Subscribe(func() { render(posts.Snapshot()) })
//	defer unsubscribe()
//
// A query starts disabled unless Options.Enabled is set. Disabled queries
// never touch the network or the cache.
package query
