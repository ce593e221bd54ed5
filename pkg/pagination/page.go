package pagination

import "context"

// Cursor is an opaque resume token. The empty cursor means "no more pages".
type Cursor string

// IsZero reports whether the cursor is absent.
func (c Cursor) IsZero() bool {
	return c == ""
}

// Page is a single fetched page of a stream.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor Cursor `json:"next_cursor,omitempty"`
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	return !p.NextCursor.IsZero()
}

// FetchFunc fetches the page that starts at cursor. The first page of a
// stream is fetched with the empty cursor.
type FetchFunc[T any] func(ctx context.Context, cursor Cursor) (Page[T], error)

// Flatten concatenates the items of every page in stream order.
// It returns nil when there are no items.
func Flatten[T any](pages []Page[T]) []T {
	total := 0
	for _, p := range pages {
		total += len(p.Items)
	}
	if total == 0 {
		return nil
	}

	items := make([]T, 0, total)
	for _, p := range pages {
		items = append(items, p.Items...)
	}
	return items
}
