// Package feed declares the blogging application's domain types and binds
// them to the remote procedures that return them.
//
// Listings are cursor-paginated: PostsPage and CommentsPage carry a
// NextCursor that is empty on the last page. UserPostsFetcher and
// UserCommentsFetcher adapt those procedures to pagination.FetchFunc, and
// UserPostsKey / UserCommentsKey name the cached query for a
// (user, filter) pair.
//
// FormatComments turns the flat comment list of a post into reply trees.
package feed
