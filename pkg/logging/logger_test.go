package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo || cfg.Pretty || cfg.Output == nil {
		t.Errorf("DefaultConfig() = %+v, want info level JSON on stderr", cfg)
	}
}

func TestSetup_LevelGate(t *testing.T) {
	emit := map[string]func(zerolog.Logger){
		"debug": func(l zerolog.Logger) { l.Debug().Msg("page served from cache") },
		"info":  func(l zerolog.Logger) { l.Info().Msg("page loaded") },
		"warn":  func(l zerolog.Logger) { l.Warn().Msg("retrying request") },
		"error": func(l zerolog.Logger) { l.Error().Msg("fetch failed") },
	}

	tests := []struct {
		level LogLevel
		want  []string
	}{
		{LevelDebug, []string{"page served from cache", "page loaded", "retrying request", "fetch failed"}},
		{LevelInfo, []string{"page loaded", "retrying request", "fetch failed"}},
		{LevelWarn, []string{"retrying request", "fetch failed"}},
		{LevelError, []string{"fetch failed"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Output: buf})
			for _, name := range []string{"debug", "info", "warn", "error"} {
				emit[name](logger)
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d: %q", len(lines), len(tt.want), buf.String())
			}
			for i, msg := range tt.want {
				if !strings.Contains(lines[i], msg) {
					t.Errorf("line %d = %q, want %q", i, lines[i], msg)
				}
			}
		})
	}
}

func TestSetup_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Pretty: true, Output: buf})
	logger.Info().Str("tab", "posts").Msg("tab switched")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("pretty output should not be JSON: %q", out)
	}
	if !strings.Contains(out, "tab switched") || !strings.Contains(out, "tab=") {
		t.Errorf("pretty output missing message or field: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseLevelFromConfig(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"DEBUG", LevelDebug, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"trace", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLevel(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetup_NilOutputDefaultsToStderr(t *testing.T) {
	logger := Setup(Config{Level: LevelError})
	logger.Debug().Msg("filtered")
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger(ComponentQuery)
	logger.Info().Str("key", "feed:posts.posts:userId=u1").Msg("test message")

	output := buf.String()
	if !strings.Contains(output, `"component":"query-client"`) {
		t.Errorf("Expected output to contain the component field, got %q", output)
	}
	if !strings.Contains(output, "feed:posts.posts:userId=u1") {
		t.Errorf("Expected output to contain the key field, got %q", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected output to contain 'test message', got %q", output)
	}
}
