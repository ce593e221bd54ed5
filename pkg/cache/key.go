package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// QueryKey identifies a paginated query: the procedure it calls and the
// input it calls it with. Two keys with equal String() share cached pages.
type QueryKey struct {
	// Resource is the procedure path (e.g., "posts.posts")
	Resource string

	// Params are the procedure inputs (e.g., {"userId": "u1", "limit": "4", "filter": "all"})
	Params map[string]string
}

// String generates a deterministic key string.
// Format: feed:resource:param1=val1:param2=val2
//
// Param names and values are query-escaped, so a value never contains the
// ':' or '=' separators.
//
// Example:
//
//	feed:posts.posts:filter=all:limit=4:userId=u1
func (k QueryKey) String() string {
	parts := []string{"feed"}

	if resource := strings.TrimSpace(k.Resource); resource != "" {
		parts = append(parts, resource)
	}

	// Params sorted for determinism
	if len(k.Params) > 0 {
		keys := make([]string, 0, len(k.Params))
		for key := range k.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", url.QueryEscape(key), url.QueryEscape(k.Params[key])))
		}
	}

	return strings.Join(parts, ":")
}

// PageKey returns the Redis key of the page fetched with cursor.
// The first page of a stream has the empty cursor.
func (k QueryKey) PageKey(cursor string) string {
	return k.String() + ":cursor=" + url.QueryEscape(cursor)
}

// pagePattern matches every page key of k for SCAN.
func (k QueryKey) pagePattern() string {
	return escapeGlob(k.String()) + ":cursor=*"
}

// escapeGlob escapes Redis glob metacharacters.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
