package main

import (
	"github.com/Sternrassler/userfeed/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions are flags overriding the environment.
type rootOptions struct {
	baseURL  string
	redisURL string
	logLevel string
	metrics  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "userfeed",
		Short:         "Browse a user's posts and comments",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", "", "web application URL (overrides USERFEED_BASE_URL)")
	flags.StringVar(&opts.redisURL, "redis-url", "", "Redis URL for the page cache (overrides USERFEED_REDIS_URL)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides USERFEED_LOG_LEVEL)")
	flags.StringVar(&opts.metrics, "metrics-addr", "", "serve /metrics on this address (overrides USERFEED_METRICS_ADDR)")

	cmd.AddCommand(newListCmd(opts), newCommentsCmd(opts), newTagsCmd(opts))
	return cmd
}

// load reads the environment, applies flag overrides and starts the app.
func (o *rootOptions) load() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.redisURL != "" {
		cfg.RedisURL = o.redisURL
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.metrics != "" {
		cfg.MetricsAddr = o.metrics
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newApp(cfg)
}
