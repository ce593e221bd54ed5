package feed

import "time"

// User is the public profile returned by users.single-user.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Image     string    `json:"image,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tag is a topic attached to posts.
type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Attachment is a file uploaded with a post, listed by
// attachments.get-post-attachments.
type Attachment struct {
	ID     string `json:"id"`
	PostID string `json:"postId"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	URL    string `json:"url"`
}

// Post is returned by posts.single-post and listed by posts.posts.
type Post struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	Slug        string       `json:"slug,omitempty"`
	UserID      string       `json:"userId"`
	User        *User        `json:"user,omitempty"`
	Tags        []Tag        `json:"tags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Likes       int          `json:"likes"`
	Comments    int          `json:"comments"`
	LikedByMe   bool         `json:"likedByMe"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TagPosts is one element of posts.posts-by-tags: a tag and the posts
// filed under it.
type TagPosts struct {
	Tag
	Posts []TaggedPost `json:"posts"`
}

// TaggedPost is a post as listed under a tag.
type TaggedPost struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	Slug        string       `json:"slug,omitempty"`
	UserID      string       `json:"userId"`
	User        *User        `json:"user,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Likes       int          `json:"likes"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Comment is one element of comments.all-comments and comments.user-comments.
// ParentID is empty for a top-level comment.
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	ParentID  string    `json:"parentId,omitempty"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentWithChildren is a comment with its replies.
type CommentWithChildren struct {
	Comment
	Children []CommentWithChildren `json:"children"`
}

// PostsPage is one page of posts.posts.
type PostsPage struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// CommentsPage is one page of comments.user-comments.
type CommentsPage struct {
	Comments   []Comment `json:"comments"`
	NextCursor string    `json:"nextCursor,omitempty"`
}
