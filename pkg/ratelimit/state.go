// Package ratelimit tracks the request budget the feed API reports in its
// X-RateLimit-Remaining and X-RateLimit-Reset headers and gates outgoing
// requests so a scrolling client backs off before the API starts rejecting it.
package ratelimit

import (
	"time"
)

// Redis keys for budget state storage. The state is shared by every client
// process pointed at the same Redis.
const (
	RedisKeyRemaining  = "feed:rate_limit:remaining"
	RedisKeyResetAt    = "feed:rate_limit:reset_at"
	RedisKeyLastUpdate = "feed:rate_limit:last_update"
)

// Response headers carrying the budget.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Thresholds for gating decisions.
const (
	// ThresholdCritical blocks requests when fewer requests remain.
	ThresholdCritical = 5

	// ThresholdWarning throttles requests when fewer requests remain.
	ThresholdWarning = 20

	// ThresholdHealthy and above means no restrictions apply.
	ThresholdHealthy = 50
)

// State is the current request budget of the API.
type State struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from response headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState is assumed until the API reports a budget.
func DefaultState() *State {
	now := time.Now()
	return &State{
		Remaining:  100,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked.
// A window that has already reset never blocks.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && s.TimeUntilReset() > 0 && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets, or 0.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
