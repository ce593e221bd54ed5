package feed

import (
	"fmt"
	"strings"
)

// Filter orders and narrows a user's listing. Both tabs share one filter.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterNewest    Filter = "newest"
	FilterOldest    Filter = "oldest"
	FilterLiked     Filter = "liked"
	FilterFollowing Filter = "following"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterNewest, FilterOldest, FilterLiked, FilterFollowing}

// Valid reports whether f is a known filter.
func (f Filter) Valid() bool {
	for _, known := range Filters {
		if f == known {
			return true
		}
	}
	return false
}

// ParseFilter parses a filter name case-insensitively. The empty string is FilterAll.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	if f := Filter(s); f.Valid() {
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}
