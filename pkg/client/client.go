// Package client provides the HTTP client for the feed's remote procedure
// API with budget gating, retries and typed procedure bindings.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/userfeed/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultRPCPath is where the API serves its procedures.
const DefaultRPCPath = "/api/trpc"

// Client is the feed API client.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	retryPolicy RetryPolicy
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the web application (e.g., "http://localhost:3000")
	BaseURL string

	// RPCPath is appended to BaseURL (default: /api/trpc)
	RPCPath string

	// User-Agent header
	UserAgent string

	// Redis enables request budget tracking shared across processes (optional)
	Redis *redis.Client

	// Timeout per HTTP attempt
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		RPCPath:   DefaultRPCPath,
		UserAgent: userAgent,
		Timeout:   15 * time.Second,
	}
}

// New creates a new feed API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.RPCPath == "" {
		cfg.RPCPath = DefaultRPCPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	logger := log.With().Str("component", "feed-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:     base,
		retryPolicy: RetryConfigForErrorClass,
		config:      cfg,
		logger:      logger,
	}
	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, logger)
	}

	return c, nil
}

// procedureURL builds the GET URL of a procedure call.
func (c *Client) procedureURL(procedure string, input []byte) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Trim(c.config.RPCPath, "/") + "/" + procedure
	if input != nil {
		u.RawQuery = url.Values{"input": []string{string(input)}}.Encode()
	}
	return u.String()
}

// Do performs an HTTP request with budget gating and retries.
// 4xx responses are returned to the caller without retrying; 5xx, 429 and
// network failures are retried and surface as *APIError once exhausted.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	procedure := procedureName(req.URL.Path)

	startTime := time.Now()
	defer func() {
		feedRequestDuration.WithLabelValues(procedure).Observe(time.Since(startTime).Seconds())
	}()

	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			// A broken budget store must not take the listing down
			c.logger.Warn().Err(err).Msg("Rate limit check failed")
		} else if !allowed {
			c.logger.Warn().Str("procedure", procedure).Msg("Request blocked by rate limiter")
			feedRequestsTotal.WithLabelValues(procedure, "rate_limited").Inc()
			return nil, ErrRateLimited
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("procedure", procedure).
		Str("method", req.Method).
		Msg("Executing feed API request")

	var resp *http.Response
	err := retryWithBackoff(ctx, c.logger, c.retryPolicy, func() error {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			c.logger.Warn().Err(reqErr).Str("procedure", procedure).Msg("HTTP request failed")
			feedErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			feedRequestsTotal.WithLabelValues(procedure, "network_error").Inc()
			return &APIError{
				Procedure:  procedure,
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		feedRequestsTotal.WithLabelValues(procedure, strconv.Itoa(resp.StatusCode)).Inc()

		errClass := classifyStatus(resp.StatusCode)
		if errClass == "" {
			return nil
		}

		feedErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("procedure", procedure).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Feed API request error")

		if !shouldRetry(errClass) {
			// Let the caller decode the error body
			return nil
		}

		apiErr := readAPIError(procedure, resp)
		apiErr.ErrorClass = errClass
		return apiErr
	})
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ErrContextCancelled) {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}
		return nil, err
	}

	return resp, nil
}

// Call invokes procedure with input and decodes its output into out.
func (c *Client) Call(ctx context.Context, procedure string, input any, out any) error {
	var encoded []byte
	if input != nil {
		var err error
		encoded, err = json.Marshal(input)
		if err != nil {
			return fmt.Errorf("encode %s input: %w", procedure, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.procedureURL(procedure, encoded), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := readAPIError(procedure, resp)
		apiErr.ErrorClass = classifyStatus(resp.StatusCode)
		return apiErr
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		feedErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &APIError{
			Procedure:  procedure,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "invalid response body",
			Err:        err,
		}
	}
	if env.Error != nil {
		return env.Error.toAPIError(procedure, resp.StatusCode)
	}
	if env.Result == nil {
		return &APIError{
			Procedure:  procedure,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "response has no result",
		}
	}

	if out == nil || len(env.Result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result.Data, out); err != nil {
		feedErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &APIError{
			Procedure:  procedure,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "invalid result data",
			Err:        err,
		}
	}
	return nil
}

// classifyStatus categorizes an HTTP status; "" means success.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// procedureName extracts the procedure from a request path.
func procedureName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetRetryPolicy overrides the per-class retry configuration (for testing).
func (c *Client) SetRetryPolicy(policy RetryPolicy) {
	c.retryPolicy = policy
}

// envelope is the response body of a procedure call.
type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Data    struct {
		Code       string `json:"code"`
		HTTPStatus int    `json:"httpStatus"`
		Path       string `json:"path"`
	} `json:"data"`
}

func (b *errorBody) toAPIError(procedure string, status int) *APIError {
	if b.Data.HTTPStatus != 0 {
		status = b.Data.HTTPStatus
	}
	class := classifyStatus(status)
	if class == "" {
		class = ErrorClassServer
	}
	return &APIError{
		Procedure:  procedure,
		StatusCode: status,
		ErrorClass: class,
		Code:       b.Data.Code,
		Message:    b.Message,
	}
}

// readAPIError drains resp and builds an APIError from its body, falling
// back to the HTTP status text when the body is not an error envelope.
func readAPIError(procedure string, resp *http.Response) *APIError {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr := env.Error.toAPIError(procedure, resp.StatusCode)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	return &APIError{
		Procedure:  procedure,
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
	}
}
