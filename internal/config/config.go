// Package config loads the userfeed process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Sternrassler/userfeed/pkg/logging"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// Config is the process configuration.
type Config struct {
	// BaseURL of the web application serving the API
	BaseURL   string `env:"USERFEED_BASE_URL" envDefault:"http://localhost:3000"`
	UserAgent string `env:"USERFEED_USER_AGENT" envDefault:"userfeed/0.1.0"`

	// RedisURL enables the page cache and rate limit tracking, e.g. redis://localhost:6379/0
	RedisURL string `env:"USERFEED_REDIS_URL"`

	LogLevel  string `env:"USERFEED_LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"USERFEED_LOG_PRETTY" envDefault:"true"`

	// MetricsAddr serves /metrics when set, e.g. :9090
	MetricsAddr string `env:"USERFEED_METRICS_ADDR"`

	PageTTL      time.Duration `env:"USERFEED_PAGE_TTL" envDefault:"30s"`
	FetchTimeout time.Duration `env:"USERFEED_FETCH_TIMEOUT" envDefault:"30s"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid USERFEED_BASE_URL %q", c.BaseURL)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("USERFEED_USER_AGENT must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid USERFEED_LOG_LEVEL: %w", err)
	}
	if c.PageTTL <= 0 {
		return fmt.Errorf("USERFEED_PAGE_TTL must be positive (got %s)", c.PageTTL)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("USERFEED_FETCH_TIMEOUT must be positive (got %s)", c.FetchTimeout)
	}
	if _, err := c.RedisOptions(); err != nil {
		return err
	}
	return nil
}

// RedisOptions returns the Redis connection options, or nil when Redis is
// not configured.
func (c Config) RedisOptions() (*redis.Options, error) {
	if c.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid USERFEED_REDIS_URL: %w", err)
	}
	return opts, nil
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level, _ = logging.ParseLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}
