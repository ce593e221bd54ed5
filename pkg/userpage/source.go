package userpage

import (
	"context"
	"fmt"

	"github.com/Sternrassler/userfeed/pkg/cache"
	"github.com/Sternrassler/userfeed/pkg/client"
	"github.com/Sternrassler/userfeed/pkg/feed"
	"github.com/Sternrassler/userfeed/pkg/pagination"
	"github.com/Sternrassler/userfeed/pkg/query"
)

// Source opens the listing streams of a user. Streams are created disabled.
type Source interface {
	Posts(userID string, filter feed.Filter) (pagination.Stream[feed.Post], error)
	Comments(userID string, filter feed.Filter) (pagination.Stream[feed.Comment], error)

	// Release gives back one stream obtained from Posts or Comments.
	// A stream shared with other holders stays open until they release it too.
	Release(tab Tab, userID string, filter feed.Filter)

	// Refresh drops the cached pages of one stream and reloads it.
	Refresh(ctx context.Context, tab Tab, userID string, filter feed.Filter) error
}

// QuerySource serves streams from a query client calling the feed API.
type QuerySource struct {
	queries *query.Client
	api     *client.Client
}

// NewQuerySource creates a Source backed by queries and api.
func NewQuerySource(queries *query.Client, api *client.Client) *QuerySource {
	return &QuerySource{queries: queries, api: api}
}

func (s *QuerySource) Posts(userID string, filter feed.Filter) (pagination.Stream[feed.Post], error) {
	q, err := query.Infinite(s.queries, feed.UserPostsKey(userID, filter),
		feed.UserPostsFetcher(s.api, userID, filter), query.Options{})
	if err != nil {
		return nil, fmt.Errorf("open posts of %s: %w", userID, err)
	}
	return q, nil
}

func (s *QuerySource) Comments(userID string, filter feed.Filter) (pagination.Stream[feed.Comment], error) {
	q, err := query.Infinite(s.queries, feed.UserCommentsKey(userID, filter),
		feed.UserCommentsFetcher(s.api, userID, filter), query.Options{})
	if err != nil {
		return nil, fmt.Errorf("open comments of %s: %w", userID, err)
	}
	return q, nil
}

func (s *QuerySource) Release(tab Tab, userID string, filter feed.Filter) {
	s.queries.Remove(listKey(tab, userID, filter))
}

func (s *QuerySource) Refresh(ctx context.Context, tab Tab, userID string, filter feed.Filter) error {
	return s.queries.Invalidate(ctx, listKey(tab, userID, filter))
}

func listKey(tab Tab, userID string, filter feed.Filter) cache.QueryKey {
	if tab == TabComments {
		return feed.UserCommentsKey(userID, filter)
	}
	return feed.UserPostsKey(userID, filter)
}
