package pagination

import "sync"

// Trigger is the single-writer/single-reader cell that holds whether the
// bottom marker is visible. Set only forwards changes to the handler, so a
// renderer may report the same value on every frame.
type Trigger struct {
	mu       sync.Mutex
	value    bool
	onChange func(bool)
}

// NewTrigger returns a trigger that calls onChange whenever its value flips.
func NewTrigger(onChange func(reachedBottom bool)) *Trigger {
	return &Trigger{onChange: onChange}
}

// Set records the current visibility of the marker.
func (t *Trigger) Set(reachedBottom bool) {
	t.mu.Lock()
	if t.value == reachedBottom {
		t.mu.Unlock()
		return
	}
	t.value = reachedBottom
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(reachedBottom)
	}
}

// Value returns the last recorded visibility.
func (t *Trigger) Value() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}
