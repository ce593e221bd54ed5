package userpage

import (
	"fmt"
	"strings"
)

// Tab selects which listing of the profile is shown.
type Tab string

const (
	TabPosts    Tab = "posts"
	TabComments Tab = "comments"
)

// ParseTab parses a tab name. The empty string is TabPosts.
func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "posts", "p":
		return TabPosts, nil
	case "comments", "c":
		return TabComments, nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// EmptyMessage is shown when a finished listing has no items.
func (t Tab) EmptyMessage() string {
	if t == TabComments {
		return "Hmm. It seems that this user has not commented on any posts yet."
	}
	return "Hmm. It seems that this user has not created any posts yet."
}
