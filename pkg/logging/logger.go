// Package logging configures the process-wide zerolog logger and hands out
// per-component child loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Component names used in the "component" field.
const (
	ComponentClient      = "feed-client"
	ComponentRateLimit   = "rate-limit"
	ComponentQuery       = "query-client"
	ComponentCoordinator = "userpage"
	ComponentComments    = "comments"
	ComponentCLI         = "cli"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel validates a level name from configuration.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: pagination internals
//   - Page cache hit/miss, cursor
//   - Query enabled/disabled, registered/removed
//   - Fetches dropped because one is in flight
//   - Tab and filter transitions
//
// Info: normal operation
//   - Page loaded (kind, items, has_next)
//   - Request succeeded after retry
//   - CLI startup/shutdown, metrics server address
//
// Warn: degraded but working
//   - Retries and throttling
//   - Page cache or rate limit store errors
//   - Responses discarded for removed or reset queries
//
// Error: needs attention
//   - Page fetch failed after retries
//   - Critical rate limit blocks
//   - Configuration errors
//
// Context Fields:
//   - component: see the Component constants
//   - procedure: API procedure (e.g., posts.posts)
//   - key: query key (feed:posts.posts:filter=all:limit=4:userId=...)
//   - kind: first, retry or next
//   - tab, filter, user_id: coordinator inputs
//   - error_class: client, server, rate_limit, network, decode
