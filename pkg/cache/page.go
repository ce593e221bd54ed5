package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/userfeed/pkg/pagination"
)

// DefaultTTL is how long a fetched page is served from cache.
const DefaultTTL = 30 * time.Second

// PageEntry is one page of a query as stored in Redis. Items stay encoded
// so the manager does not need to know the item type.
type PageEntry struct {
	Items      json.RawMessage `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	Expires    time.Time       `json:"expires"`
	CachedAt   time.Time       `json:"cached_at"`
}

// Stale reports whether the page may no longer be served.
func (e *PageEntry) Stale() bool {
	return !time.Now().Before(e.Expires)
}

// TTL is the remaining lifetime, 0 once stale.
func (e *PageEntry) TTL() time.Duration {
	return max(time.Until(e.Expires), 0)
}

// Terminal reports whether the cached page ends its stream.
func (e *PageEntry) Terminal() bool {
	return e.NextCursor == ""
}

// NewPageEntry encodes a fetched page into a cache entry that expires after ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewPageEntry[T any](page pagination.Page[T], ttl time.Duration) (*PageEntry, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	items := page.Items
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal page items: %w", err)
	}

	now := time.Now()
	return &PageEntry{
		Items:      data,
		NextCursor: string(page.NextCursor),
		Expires:    now.Add(ttl),
		CachedAt:   now,
	}, nil
}

// EntryToPage decodes a cached entry back into a page.
func EntryToPage[T any](entry *PageEntry) (pagination.Page[T], error) {
	if entry == nil {
		return pagination.Page[T]{}, fmt.Errorf("cache entry cannot be nil")
	}

	var items []T
	if err := json.Unmarshal(entry.Items, &items); err != nil {
		return pagination.Page[T]{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	return pagination.Page[T]{
		Items:      items,
		NextCursor: pagination.Cursor(entry.NextCursor),
	}, nil
}
