package ratelimit

import (
	"testing"
	"time"
)

func TestState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *State
		maxAge   time.Duration
		expected bool
	}{
		{
			name:     "fresh state",
			state:    &State{LastUpdate: time.Now()},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name:     "stale state",
			state:    &State{LastUpdate: time.Now().Add(-10 * time.Minute)},
			maxAge:   5 * time.Minute,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_Gating(t *testing.T) {
	future := time.Now().Add(time.Minute)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name           string
		remaining      int
		resetAt        time.Time
		expectBlock    bool
		expectThrottle bool
		expectHealthy  bool
	}{
		{
			name:          "healthy",
			remaining:     100,
			resetAt:       future,
			expectHealthy: true,
		},
		{
			name:          "at healthy threshold",
			remaining:     ThresholdHealthy,
			resetAt:       future,
			expectHealthy: true,
		},
		{
			name:      "between warning and healthy",
			remaining: 30,
			resetAt:   future,
		},
		{
			name:           "warning",
			remaining:      ThresholdWarning - 1,
			resetAt:        future,
			expectThrottle: true,
		},
		{
			name:           "at critical threshold",
			remaining:      ThresholdCritical,
			resetAt:        future,
			expectThrottle: true,
		},
		{
			name:        "critical",
			remaining:   ThresholdCritical - 1,
			resetAt:     future,
			expectBlock: true,
		},
		{
			name:      "critical but window already reset",
			remaining: 0,
			resetAt:   past,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{Remaining: tt.remaining, ResetAt: tt.resetAt}
			state.UpdateHealth()

			if got := state.NeedsCriticalBlock(); got != tt.expectBlock {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.expectBlock)
			}
			if got := state.NeedsThrottling(); got != tt.expectThrottle {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.expectThrottle)
			}
			if state.IsHealthy != tt.expectHealthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.expectHealthy)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	state := &State{ResetAt: time.Now().Add(-time.Second)}
	if got := state.TimeUntilReset(); got != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0", got)
	}

	state.ResetAt = time.Now().Add(30 * time.Second)
	if got := state.TimeUntilReset(); got < 29*time.Second || got > 30*time.Second {
		t.Errorf("TimeUntilReset() = %v, want about 30s", got)
	}
}

func TestDefaultState(t *testing.T) {
	state := DefaultState()
	if !state.IsHealthy {
		t.Error("default state should be healthy")
	}
	if state.NeedsCriticalBlock() || state.NeedsThrottling() {
		t.Error("default state should not gate requests")
	}
}
