// Package pagination provides the primitives shared by cursor-paginated
// streams: pages, stream snapshots, flattened views and the scroll trigger.
//
// A stream is an ordered sequence of pages fetched by following cursors.
// Pages are appended in the order their fetches resolve, and since a stream
// never has more than one fetch in flight, that order equals request order.
//
// Example usage:
//
//	var flat pagination.FlatList[feed.Post]
//	snap := stream.Snapshot()
//	posts := flat.Items(snap)
//	if snap.CanFetchNext() {
//		stream.FetchNextPage()
//	}
//
// The state of a stream moves through:
//
//	Idle -> Loading -> Loaded(hasMore) <-> FetchingNext -> Loaded(!hasMore)
//
// with Failed reachable from Loading when the initial page cannot be fetched.
// Loaded without a next cursor is terminal for the stream; a new stream
// (different user or filter) starts again at Idle.
package pagination
