package pagination

// FlatList memoizes the flattened items of a stream, recomputing only when
// the snapshot revision changes. The zero value is ready to use.
// It is not safe for concurrent use.
type FlatList[T any] struct {
	rev   Revision
	valid bool
	items []T
}

// Items returns the flattened items of snap.
func (f *FlatList[T]) Items(snap Snapshot[T]) []T {
	if f.valid && f.rev == snap.Revision {
		return f.items
	}
	f.items = Flatten(snap.Pages)
	f.rev = snap.Revision
	f.valid = true
	return f.items
}

// Reset drops the memoized list.
func (f *FlatList[T]) Reset() {
	f.items = nil
	f.valid = false
}
