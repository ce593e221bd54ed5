package pagination

// State is the lifecycle state of a single stream.
type State int

const (
	// StateIdle means the stream has never been enabled or has no identity yet.
	StateIdle State = iota

	// StateLoading means the first page is being fetched.
	StateLoading

	// StateLoaded means at least one page is present and nothing is in flight.
	StateLoaded

	// StateFetchingNext means a next-page fetch is in flight.
	StateFetchingNext

	// StateFailed means the first page could not be fetched.
	StateFailed
)

// String returns the lowercase name used in logs and metrics.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFetchingNext:
		return "fetching_next"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
