package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for budget tracking.
var (
	feedRequestsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feed_rate_limit_remaining",
		Help: "Requests remaining in the current feed API rate limit window",
	})

	feedRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_rate_limit_blocks_total",
		Help: "Total number of requests blocked due to an exhausted request budget",
	})

	feedRateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to a low request budget",
	})
)

// DefaultThrottleDelay is how long a request waits in the warning range.
const DefaultThrottleDelay = 1 * time.Second

// Tracker monitors the API request budget and gates requests.
type Tracker struct {
	redis         *redis.Client
	logger        zerolog.Logger
	throttleDelay time.Duration
}

// NewTracker creates a new budget tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay overrides the warning-range delay (for testing).
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState retrieves the current budget from Redis.
// Returns DefaultState if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	values, err := t.redis.MGet(ctx, RedisKeyRemaining, RedisKeyResetAt, RedisKeyLastUpdate).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	if values[0] == nil {
		t.logger.Debug().Msg("No rate limit state in Redis, assuming healthy")
		return DefaultState(), nil
	}

	remaining, err := parseRedisInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	resetAt, err := parseRedisInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("parse reset: %w", err)
	}
	lastUpdate, err := parseRedisInt(values[2])
	if err != nil {
		return nil, fmt.Errorf("parse last update: %w", err)
	}

	state := &State{
		Remaining:  int(remaining),
		ResetAt:    time.Unix(resetAt, 0),
		LastUpdate: time.UnixMilli(lastUpdate),
	}
	state.UpdateHealth()
	return state, nil
}

// parseHeaders reads the budget a response reports. ok is false when the
// response carries no budget.
func parseHeaders(headers http.Header, now time.Time) (state *State, ok bool, err error) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil, false, nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return nil, false, fmt.Errorf("%s header missing", HeaderReset)
	}
	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	state = &State{
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()
	return state, true, nil
}

// UpdateFromHeaders stores the budget reported by a response in Redis.
// Responses without budget headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	state, ok, err := parseHeaders(headers, time.Now())
	if err != nil || !ok {
		return err
	}
	remain := state.Remaining

	if t.redis == nil {
		return errors.New("redis client is required to store rate limit state")
	}

	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, remain, 0)
	pipe.Set(ctx, RedisKeyResetAt, state.ResetAt.Unix(), 0)
	pipe.Set(ctx, RedisKeyLastUpdate, state.LastUpdate.UnixMilli(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	feedRequestsRemaining.Set(float64(remain))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Feed API budget CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Feed API budget WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("Feed API budget updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now.
// It returns false while the budget is critical and sleeps for the
// throttle delay while it is in the warning range.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, err
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Feed API budget critical - blocking request")
		feedRateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("delay", t.throttleDelay).
			Msg("Feed API budget low - throttling request")
		feedRateLimitThrottlesTotal.Inc()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.throttleDelay):
		}
	}

	return true, nil
}

func parseRedisInt(v interface{}) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected redis value %T", v)
	}
	return strconv.ParseInt(s, 10, 64)
}
