package feed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Sternrassler/userfeed/pkg/cache"
	"github.com/Sternrassler/userfeed/pkg/client"
	"github.com/Sternrassler/userfeed/pkg/pagination"
)

// UserPostsKey is the query key of a user's post listing.
func UserPostsKey(userID string, filter Filter) cache.QueryKey {
	return listKey(UserPosts.Path, userID, filter)
}

// UserCommentsKey is the query key of a user's comment listing.
func UserCommentsKey(userID string, filter Filter) cache.QueryKey {
	return listKey(UserComments.Path, userID, filter)
}

func listKey(resource, userID string, filter Filter) cache.QueryKey {
	return cache.QueryKey{
		Resource: resource,
		Params: map[string]string{
			"userId": userID,
			"limit":  strconv.Itoa(DefaultPageLimit),
			"filter": string(filter),
		},
	}
}

// UserPostsFetcher fetches pages of a user's posts.
func UserPostsFetcher(api *client.Client, userID string, filter Filter) pagination.FetchFunc[Post] {
	return func(ctx context.Context, cursor pagination.Cursor) (pagination.Page[Post], error) {
		page, err := UserPosts.Call(ctx, api, listInput(userID, filter, cursor))
		if err != nil {
			return pagination.Page[Post]{}, fmt.Errorf("fetch posts of %s: %w", userID, err)
		}
		return pagination.Page[Post]{Items: page.Posts, NextCursor: pagination.Cursor(page.NextCursor)}, nil
	}
}

// UserCommentsFetcher fetches pages of a user's comments.
func UserCommentsFetcher(api *client.Client, userID string, filter Filter) pagination.FetchFunc[Comment] {
	return func(ctx context.Context, cursor pagination.Cursor) (pagination.Page[Comment], error) {
		page, err := UserComments.Call(ctx, api, listInput(userID, filter, cursor))
		if err != nil {
			return pagination.Page[Comment]{}, fmt.Errorf("fetch comments of %s: %w", userID, err)
		}
		return pagination.Page[Comment]{Items: page.Comments, NextCursor: pagination.Cursor(page.NextCursor)}, nil
	}
}

func listInput(userID string, filter Filter, cursor pagination.Cursor) UserListInput {
	return UserListInput{
		UserID: userID,
		Limit:  DefaultPageLimit,
		Filter: filter,
		Cursor: string(cursor),
	}
}
