// Package comments loads the comment section of a post.
package comments

import (
	"context"
	"fmt"

	"github.com/Sternrassler/userfeed/pkg/client"
	"github.com/Sternrassler/userfeed/pkg/feed"
	"github.com/Sternrassler/userfeed/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Section is a post with its attachments and its comments arranged into
// reply trees.
type Section struct {
	Post        feed.Post
	Attachments []feed.Attachment
	Comments    []feed.CommentWithChildren
	Total       int
}

// Loader fetches comment sections.
type Loader struct {
	api    *client.Client
	logger zerolog.Logger
}

// NewLoader creates a loader calling api.
func NewLoader(api *client.Client) *Loader {
	return &Loader{
		api:    api,
		logger: logging.NewLogger(logging.ComponentComments),
	}
}

// Load fetches the post, its attachments and its comments concurrently.
func (l *Loader) Load(ctx context.Context, postID string) (*Section, error) {
	if postID == "" {
		return nil, fmt.Errorf("post id is required")
	}

	var (
		post        feed.Post
		attachments []feed.Attachment
		comments    []feed.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		post, err = feed.SinglePost.Call(gctx, l.api, feed.PostInput{PostID: postID})
		if err != nil {
			return fmt.Errorf("load post %s: %w", postID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		attachments, err = feed.PostAttachments.Call(gctx, l.api, feed.PostInput{PostID: postID})
		if err != nil {
			return fmt.Errorf("load attachments of %s: %w", postID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		comments, err = feed.PostComments.Call(gctx, l.api, feed.PostInput{PostID: postID})
		if err != nil {
			return fmt.Errorf("load comments of %s: %w", postID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	section := &Section{
		Post:        post,
		Attachments: attachments,
		Comments:    feed.FormatComments(comments),
		Total:       len(comments),
	}

	l.logger.Debug().
		Str("post_id", postID).
		Int("comments", section.Total).
		Int("attachments", len(attachments)).
		Int("threads", len(section.Comments)).
		Msg("Comment section loaded")

	return section, nil
}

// Walk visits every comment depth-first, replies after their parent.
func Walk(trees []feed.CommentWithChildren, fn func(c feed.CommentWithChildren, depth int)) {
	var visit func(nodes []feed.CommentWithChildren, depth int)
	visit = func(nodes []feed.CommentWithChildren, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(trees, 0)
}

// Tagged lists every tag with its posts.
func (l *Loader) Tagged(ctx context.Context) ([]feed.TagPosts, error) {
	groups, err := feed.PostsByTags.Call(ctx, l.api, struct{}{})
	if err != nil {
		return nil, fmt.Errorf("load posts by tags: %w", err)
	}
	l.logger.Debug().Int("tags", len(groups)).Msg("Tagged posts loaded")
	return groups, nil
}
