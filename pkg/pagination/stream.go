package pagination

// Revision identifies one version of one stream. The stream ID is unique per
// stream instance, so a replaced stream never shares a revision with the old one.
type Revision struct {
	Stream  uint64
	Version uint64
}

// Snapshot is an immutable view of a stream at one instant.
// Pages must not be modified by the receiver.
type Snapshot[T any] struct {
	Revision Revision
	State    State
	Enabled  bool
	Pages    []Page[T]

	// Err is the last fetch error. It is cleared by the next successful fetch.
	Err error
}

// IsLoading reports whether the first page is being fetched.
func (s Snapshot[T]) IsLoading() bool {
	return s.State == StateLoading
}

// IsFetchingNextPage reports whether a next-page fetch is in flight.
func (s Snapshot[T]) IsFetchingNextPage() bool {
	return s.State == StateFetchingNext
}

// HasNextPage reports whether the last fetched page carries a cursor.
// A failed next-page fetch leaves this at its last known value.
func (s Snapshot[T]) HasNextPage() bool {
	if len(s.Pages) == 0 {
		return false
	}
	return s.Pages[len(s.Pages)-1].HasNext()
}

// NextCursor returns the cursor the next fetch resumes from.
func (s Snapshot[T]) NextCursor() Cursor {
	if len(s.Pages) == 0 {
		return ""
	}
	return s.Pages[len(s.Pages)-1].NextCursor
}

// CanFetchNext reports whether a next-page fetch may be issued now.
func (s Snapshot[T]) CanFetchNext() bool {
	return s.Enabled && s.State == StateLoaded && s.HasNextPage()
}

// Stream is a cursor-paginated source of items, typically backed by a query
// client. Implementations deliver Subscribe callbacks asynchronously, never
// on the goroutine that called FetchNextPage or SetEnabled.
type Stream[T any] interface {
	// Snapshot returns the current state of the stream.
	Snapshot() Snapshot[T]

	// SetEnabled gates all network activity. Enabling an idle stream starts
	// the first page fetch.
	SetEnabled(enabled bool)

	// FetchNextPage requests the page after the last one. It returns false
	// without doing anything when a fetch is already in flight, the stream
	// is exhausted or disabled.
	FetchNextPage() bool

	// Retry restarts a stream whose first page failed.
	Retry() bool

	// Subscribe registers fn to be called after every state change.
	Subscribe(fn func()) (unsubscribe func())
}
