package client

import "context"

// Query binds a query procedure to the Go types of its input and output, so
// callers get the output shape from the procedure they name instead of
// decoding untyped JSON.
//
//	var SinglePost = client.NewQuery[PostInput, Post]("posts.single-post")
//	post, err := SinglePost.Call(ctx, api, PostInput{PostID: id})
type Query[In, Out any] struct {
	// Path is the dotted procedure name (e.g., "posts.posts").
	Path string
}

// NewQuery declares a query procedure.
func NewQuery[In, Out any](path string) Query[In, Out] {
	return Query[In, Out]{Path: path}
}

// Call invokes the procedure.
func (q Query[In, Out]) Call(ctx context.Context, c *Client, in In) (Out, error) {
	var out Out
	if err := c.Call(ctx, q.Path, in, &out); err != nil {
		var zero Out
		return zero, err
	}
	return out, nil
}
