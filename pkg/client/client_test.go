package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

// fastRetries keeps retry tests quick.
func fastRetries(ErrorClass) RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(DefaultConfig(server.URL, "userfeed-test/1.0"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.SetRetryPolicy(fastRetries)
	t.Cleanup(func() { c.Close() })
	return c
}

func writeResult(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":     nil,
		"result": map[string]any{"type": "data", "data": data},
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"id": nil,
		"error": map[string]any{
			"message": message,
			"code":    -32600,
			"data":    map[string]any{"code": code, "httpStatus": status},
		},
	})
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			config: DefaultConfig("http://localhost:3000", "TestApp/1.0.0"),
		},
		{
			name:        "missing base url",
			config:      Config{UserAgent: "TestApp/1.0.0"},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name:        "empty user agent",
			config:      Config{BaseURL: "http://localhost:3000"},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name:        "unsupported scheme",
			config:      Config{BaseURL: "ftp://example.com", UserAgent: "TestApp/1.0.0"},
			expectError: true,
			errorMsg:    `base url must be http or https (got "ftp://example.com")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("Client is nil")
			}
			if client.rateLimiter != nil {
				t.Error("rate limiter should be disabled without redis")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("http://localhost:3000", "TestApp/1.0.0")

	if cfg.RPCPath != DefaultRPCPath {
		t.Errorf("RPCPath = %q, want %q", cfg.RPCPath, DefaultRPCPath)
	}
	if cfg.Timeout <= 0 {
		t.Errorf("Timeout = %v, should be > 0", cfg.Timeout)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{200, ""},
		{304, ""},
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.expected {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestProcedureURL(t *testing.T) {
	c, err := New(DefaultConfig("http://localhost:3000/app/", "TestApp/1.0.0"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := url.Parse(c.procedureURL("posts.posts", []byte(`{"userId":"u1"}`)))
	if err != nil {
		t.Fatalf("procedureURL() returned invalid url: %v", err)
	}
	if got.Path != "/app/api/trpc/posts.posts" {
		t.Errorf("Path = %q", got.Path)
	}
	if got.Query().Get("input") != `{"userId":"u1"}` {
		t.Errorf("input = %q", got.Query().Get("input"))
	}
}

func TestCall_Success(t *testing.T) {
	var userAgent, input string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		input = r.URL.Query().Get("input")
		writeResult(w, map[string]any{"id": "p1", "title": "Hello"})
	})

	var out struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	err := c.Call(context.Background(), "posts.single-post", map[string]string{"postId": "p1"}, &out)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if out.ID != "p1" || out.Title != "Hello" {
		t.Errorf("Call() decoded %+v", out)
	}
	if userAgent != "userfeed-test/1.0" {
		t.Errorf("User-Agent = %q", userAgent)
	}
	if input != `{"postId":"p1"}` {
		t.Errorf("input = %q", input)
	}
}

func TestCall_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusNotFound, "NOT_FOUND", "post not found")
	})

	err := c.Call(context.Background(), "posts.single-post", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != "NOT_FOUND" || apiErr.Message != "post not found" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.ErrorClass != ErrorClassClient {
		t.Errorf("ErrorClass = %q, want client", apiErr.ErrorClass)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false, want true")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}
}

func TestCall_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "boom")
			return
		}
		writeResult(w, []string{"ok"})
	})

	var out []string
	if err := c.Call(context.Background(), "comments.all-comments", nil, &out); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(out) != 1 || out[0] != "ok" {
		t.Errorf("out = %v", out)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestCall_RetryExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "slow down")
	})

	err := c.Call(context.Background(), "posts.posts", nil, nil)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorClass != ErrorClassRateLimit {
		t.Errorf("expected wrapped rate limit APIError, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestCall_ErrorEnvelopeWith200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "bad input",
				"data":    map[string]any{"code": "BAD_REQUEST", "httpStatus": 400},
			},
		})
	})

	err := c.Call(context.Background(), "posts.posts", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Code != "BAD_REQUEST" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestCall_InvalidBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	err := c.Call(context.Background(), "posts.posts", nil, nil)
	if classOf(err) != ErrorClassDecode {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestCall_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusServiceUnavailable, "", "unavailable")
	})
	c.SetRetryPolicy(func(ErrorClass) RetryConfig {
		return RetryConfig{MaxAttempts: 5, InitialBackoff: time.Minute, MaxBackoff: time.Minute, BackoffMultiplier: 1}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Call(ctx, "posts.posts", nil, nil)
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("expected ErrContextCancelled, got %v", err)
	}
}

func TestQuery_Call(t *testing.T) {
	type input struct {
		UserID string `json:"userId"`
	}
	type user struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if procedureName(r.URL.Path) != "users.single-user" {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no such procedure")
			return
		}
		writeResult(w, user{ID: "u1", Name: "Ada"})
	})

	singleUser := NewQuery[input, user]("users.single-user")
	got, err := singleUser.Call(context.Background(), c, input{UserID: "u1"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got.Name != "Ada" {
		t.Errorf("Name = %q, want Ada", got.Name)
	}

	missing := NewQuery[input, user]("users.nope")
	if _, err := missing.Call(context.Background(), c, input{}); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
