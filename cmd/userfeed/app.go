package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/userfeed/internal/config"
	"github.com/Sternrassler/userfeed/pkg/cache"
	"github.com/Sternrassler/userfeed/pkg/client"
	"github.com/Sternrassler/userfeed/pkg/logging"
	"github.com/Sternrassler/userfeed/pkg/metrics"
	"github.com/Sternrassler/userfeed/pkg/query"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the clients shared by every command.
type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	redis   *redis.Client
	api     *client.Client
	queries *query.Client
	cancel  context.CancelFunc
}

func newApp(cfg config.Config) (*app, error) {
	logging.Setup(cfg.Logging())
	logger := logging.NewLogger(logging.ComponentCLI)

	ctx, cancel := context.WithCancel(context.Background())
	a := &app{cfg: cfg, logger: logger, cancel: cancel}

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		cancel()
		return nil, err
	}
	if redisOpts != nil {
		a.redis = redis.NewClient(redisOpts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			// The listing works without Redis, just uncached
			logger.Warn().Err(err).Str("addr", redisOpts.Addr).Msg("Redis unavailable, page cache disabled")
			a.redis.Close()
			a.redis = nil
		} else {
			logger.Info().Str("addr", redisOpts.Addr).Msg("Connected to Redis")
		}
	}

	clientCfg := client.DefaultConfig(cfg.BaseURL, cfg.UserAgent)
	clientCfg.Redis = a.redis
	a.api, err = client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create feed client: %w", err)
	}

	queryCfg := query.DefaultConfig()
	queryCfg.PageTTL = cfg.PageTTL
	queryCfg.FetchTimeout = cfg.FetchTimeout
	if a.redis != nil {
		queryCfg.Cache = cache.NewManager(a.redis)
	}
	a.queries = query.NewClient(queryCfg)

	if cfg.MetricsAddr != "" {
		if _, _, err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
			a.Close()
			return nil, err
		}
	}

	logger.Debug().Str("base_url", cfg.BaseURL).Msg("Started")
	return a, nil
}

// Close stops background work and releases connections.
func (a *app) Close() {
	a.cancel()
	if a.queries != nil {
		a.queries.Close()
	}
	if a.api != nil {
		a.api.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
