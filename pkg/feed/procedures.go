package feed

import "github.com/Sternrassler/userfeed/pkg/client"

// DefaultPageLimit is the number of items requested per listing page.
const DefaultPageLimit = 4

// UserListInput is the input of the per-user listing procedures.
type UserListInput struct {
	UserID string `json:"userId"`
	Limit  int    `json:"limit"`
	Filter Filter `json:"filter"`
	Cursor string `json:"cursor,omitempty"`
}

// PostInput selects a single post.
type PostInput struct {
	PostID string `json:"postId"`
}

// UserInput selects a single user.
type UserInput struct {
	UserID string `json:"userId"`
}

// Query procedures of the API.
var (
	UserPosts    = client.NewQuery[UserListInput, PostsPage]("posts.posts")
	UserComments = client.NewQuery[UserListInput, CommentsPage]("comments.user-comments")
	PostComments = client.NewQuery[PostInput, []Comment]("comments.all-comments")
	SinglePost   = client.NewQuery[PostInput, Post]("posts.single-post")
	SingleUser   = client.NewQuery[UserInput, User]("users.single-user")

	PostsByTags     = client.NewQuery[struct{}, []TagPosts]("posts.posts-by-tags")
	PostAttachments = client.NewQuery[PostInput, []Attachment]("attachments.get-post-attachments")
)
