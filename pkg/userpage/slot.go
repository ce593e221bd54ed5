package userpage

import "github.com/Sternrassler/userfeed/pkg/pagination"

// slotStatus is the item-type independent state of a stream.
type slotStatus struct {
	State        pagination.State
	Items        int
	HasNextPage  bool
	CanFetchNext bool
	Err          error
}

// activeSlot hides the item type of a listing from the coordinator.
type activeSlot interface {
	setEnabled(enabled bool)
	fetchNext() bool
	retry() bool
	status() slotStatus
	close()
}

// slot holds one stream and the memoized flattening of its pages.
type slot[T any] struct {
	stream      pagination.Stream[T]
	unsubscribe func()
	flat        pagination.FlatList[T]
	enabled     bool // this slot's vote on the shared stream
}

func newSlot[T any](stream pagination.Stream[T], onChange func()) *slot[T] {
	return &slot[T]{
		stream:      stream,
		unsubscribe: stream.Subscribe(onChange),
	}
}

func (s *slot[T]) items() []T {
	return s.flat.Items(s.stream.Snapshot())
}

func (s *slot[T]) setEnabled(enabled bool) {
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	s.stream.SetEnabled(enabled)
}

func (s *slot[T]) fetchNext() bool {
	if !s.stream.Snapshot().CanFetchNext() {
		return false
	}
	return s.stream.FetchNextPage()
}

func (s *slot[T]) retry() bool {
	return s.stream.Retry()
}

func (s *slot[T]) status() slotStatus {
	snap := s.stream.Snapshot()
	return slotStatus{
		State:        snap.State,
		Items:        len(s.flat.Items(snap)),
		HasNextPage:  snap.HasNextPage(),
		CanFetchNext: snap.CanFetchNext(),
		Err:          snap.Err,
	}
}

func (s *slot[T]) close() {
	s.setEnabled(false)
	s.unsubscribe()
	s.flat.Reset()
}
