package userpage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/userfeed/pkg/feed"
	"github.com/Sternrassler/userfeed/pkg/pagination"
)

var fakeStreamIDs atomic.Uint64

// fakeStream is a pagination.Stream driven by the test: fetches start
// synchronously and complete when the test calls resolve or fail.
type fakeStream[T any] struct {
	mu      sync.Mutex
	id      uint64
	version uint64
	state   pagination.State
	enabled bool
	pages   []pagination.Page[T]
	err     error
	subs    map[int]func()
	nextSub int

	starts  int // first-page loads started
	fetches int // next-page fetches started
}

func newFakeStream[T any]() *fakeStream[T] {
	return &fakeStream[T]{id: fakeStreamIDs.Add(1), subs: make(map[int]func())}
}

func (s *fakeStream[T]) Snapshot() pagination.Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pages)
	return pagination.Snapshot[T]{
		Revision: pagination.Revision{Stream: s.id, Version: s.version},
		State:    s.state,
		Enabled:  s.enabled,
		Pages:    s.pages[:n:n],
		Err:      s.err,
	}
}

func (s *fakeStream[T]) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	s.version++
	if enabled && s.state == pagination.StateIdle {
		s.state = pagination.StateLoading
		s.starts++
	}
}

func (s *fakeStream[T]) FetchNextPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pages)
	if !s.enabled || s.state != pagination.StateLoaded || n == 0 || !s.pages[n-1].HasNext() {
		return false
	}
	s.state = pagination.StateFetchingNext
	s.version++
	s.fetches++
	return true
}

func (s *fakeStream[T]) Retry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || s.state != pagination.StateFailed {
		return false
	}
	s.state = pagination.StateLoading
	s.version++
	s.starts++
	return true
}

func (s *fakeStream[T]) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// resolve completes the fetch in flight with page.
func (s *fakeStream[T]) resolve(items []T, next pagination.Cursor) {
	s.mu.Lock()
	if s.state != pagination.StateLoading && s.state != pagination.StateFetchingNext {
		s.mu.Unlock()
		panic("resolve without a fetch in flight")
	}
	s.pages = append(s.pages, pagination.Page[T]{Items: items, NextCursor: next})
	s.state = pagination.StateLoaded
	s.err = nil
	s.version++
	s.mu.Unlock()
	s.notify()
}

// fail completes the fetch in flight with err.
func (s *fakeStream[T]) fail(err error) {
	s.mu.Lock()
	if s.state == pagination.StateLoading {
		s.state = pagination.StateFailed
	} else {
		s.state = pagination.StateLoaded
	}
	s.err = err
	s.version++
	s.mu.Unlock()
	s.notify()
}

func (s *fakeStream[T]) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *fakeStream[T]) counts() (starts, fetches int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.fetches
}

func (s *fakeStream[T]) isEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// fakeSource hands out one fake stream pair per (user, filter).
type fakeSource struct {
	mu        sync.Mutex
	posts     map[string]*fakeStream[feed.Post]
	comments  map[string]*fakeStream[feed.Comment]
	released  []string
	refreshed []string
	openErr   error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		posts:    make(map[string]*fakeStream[feed.Post]),
		comments: make(map[string]*fakeStream[feed.Comment]),
	}
}

func sourceKey(userID string, filter feed.Filter) string {
	return userID + "/" + string(filter)
}

func (s *fakeSource) Posts(userID string, filter feed.Filter) (pagination.Stream[feed.Post], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	k := sourceKey(userID, filter)
	if _, ok := s.posts[k]; !ok {
		s.posts[k] = newFakeStream[feed.Post]()
	}
	return s.posts[k], nil
}

func (s *fakeSource) Comments(userID string, filter feed.Filter) (pagination.Stream[feed.Comment], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	k := sourceKey(userID, filter)
	if _, ok := s.comments[k]; !ok {
		s.comments[k] = newFakeStream[feed.Comment]()
	}
	return s.comments[k], nil
}

func (s *fakeSource) Release(tab Tab, userID string, filter feed.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := sourceKey(userID, filter)
	if tab == TabComments {
		delete(s.comments, k)
	} else {
		delete(s.posts, k)
	}
	s.released = append(s.released, string(tab)+":"+k)
}

func (s *fakeSource) Refresh(_ context.Context, tab Tab, userID string, filter feed.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.refreshed = append(s.refreshed, string(tab)+":"+sourceKey(userID, filter))
	return nil
}

func (s *fakeSource) postStream(userID string, filter feed.Filter) *fakeStream[feed.Post] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts[sourceKey(userID, filter)]
}

func (s *fakeSource) commentStream(userID string, filter feed.Filter) *fakeStream[feed.Comment] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comments[sourceKey(userID, filter)]
}

var errBoom = errors.New("boom")

func posts(ids ...string) []feed.Post {
	out := make([]feed.Post, 0, len(ids))
	for _, id := range ids {
		out = append(out, feed.Post{ID: id})
	}
	return out
}

func comments(ids ...string) []feed.Comment {
	out := make([]feed.Comment, 0, len(ids))
	for _, id := range ids {
		out = append(out, feed.Comment{ID: id})
	}
	return out
}

func postIDs(ps []feed.Post) []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func commentIDs(cs []feed.Comment) []string {
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}
