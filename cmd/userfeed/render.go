package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/userfeed/pkg/comments"
	"github.com/Sternrassler/userfeed/pkg/feed"
	"github.com/Sternrassler/userfeed/pkg/userpage"
)

const placeholderLine = "  ░░░░░░░░ loading"

func renderView(w io.Writer, v userpage.View) {
	fmt.Fprintf(w, "\n[%s] filter=%s\n", v.Tab, v.Filter)

	for i := 0; i < v.LoadingPlaceholders; i++ {
		fmt.Fprintln(w, placeholderLine)
	}
	for _, p := range v.Posts {
		fmt.Fprintf(w, "  • %s  (%d likes, %d comments)\n", p.Title, p.Likes, p.Comments)
	}
	for _, c := range v.Comments {
		fmt.Fprintf(w, "  • %s\n", oneLine(c.Body))
	}
	if v.FetchingMore {
		fmt.Fprintln(w, placeholderLine)
	}

	switch {
	case v.Err != nil:
		fmt.Fprintf(w, "  ! %v (r to retry)\n", v.Err)
	case v.Empty:
		fmt.Fprintf(w, "  %s\n", v.EmptyMessage)
	case v.HasNextPage && !v.FetchingMore:
		fmt.Fprintln(w, "  … more (Enter)")
	}
}

func renderSection(w io.Writer, s *comments.Section) {
	fmt.Fprintf(w, "%s\n%s\n\n", s.Post.Title, strings.Repeat("=", len([]rune(s.Post.Title))))
	for _, a := range s.Attachments {
		fmt.Fprintf(w, "[%s] %s\n", a.Type, a.Name)
	}
	if len(s.Attachments) > 0 {
		fmt.Fprintln(w)
	}
	if s.Total == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	fmt.Fprintf(w, "%d comments\n", s.Total)
	comments.Walk(s.Comments, func(c feed.CommentWithChildren, depth int) {
		author := "anonymous"
		if c.User != nil && c.User.Name != "" {
			author = c.User.Name
		}
		fmt.Fprintf(w, "%s- %s: %s\n", strings.Repeat("  ", depth), author, oneLine(c.Body))
	})
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func renderTags(w io.Writer, groups []feed.TagPosts) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No tagged posts.")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(w, "#%s (%d)\n", g.Name, len(g.Posts))
		for _, p := range g.Posts {
			fmt.Fprintf(w, "  %s  %s\n", p.ID, p.Title)
		}
	}
}
