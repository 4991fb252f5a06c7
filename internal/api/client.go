// Package api implements the HTTP client for the remote Doggo Diary
// API. All persistence and business rules live on the server; this
// package only translates calls and failures into the client's error
// taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"doggodiary/internal/config"
	"doggodiary/internal/models"
	"doggodiary/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const maxResponseBytes = 8 << 20

// TokenSource supplies the current bearer token, or "" when anonymous.
type TokenSource func() string

// Client talks to the remote Doggo Diary API.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   TokenSource
	limiter *rateLimiter
	metrics *observability.APIMetrics
	log     *observability.Logger

	// onSessionExpired fires once per 401 observed on an authenticated
	// call, before the error is returned.
	onSessionExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithTokenSource sets the bearer-token supplier.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithRateLimit overrides the request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = newRateLimiter(rps, burst) }
}

// WithSessionExpiredHook registers the hook invoked on 401 responses to
// authenticated calls.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		limiter: newRateLimiter(10, 20),
		metrics: observability.NewAPIMetrics(),
		log:     observability.Component("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a Client configured from application config.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.RequestTimeoutSecs) * time.Second}),
		WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	return New(cfg.APIBaseURL, append(base, opts...)...)
}

// apiErrorBody covers the error shapes the server is known to produce.
type apiErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Errors  []struct {
		Msg string `json:"msg"`
	} `json:"errors"`
}

func (b apiErrorBody) message() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

func (b apiErrorBody) fields() []string {
	out := make([]string, 0, len(b.Errors))
	for _, e := range b.Errors {
		if e.Msg != "" {
			out = append(out, e.Msg)
		}
	}
	return out
}

func (c *Client) doJSON(ctx context.Context, operation, method, path string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return models.NewRequestFailedError("failed to encode request", 0, err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.do(ctx, operation, method, path, contentType, reader, out)
}

func (c *Client) doMultipart(ctx context.Context, operation, method, path, field, filename string, content []byte, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		return models.NewRequestFailedError("failed to build upload", 0, err)
	}
	if _, err := fw.Write(content); err != nil {
		return models.NewRequestFailedError("failed to build upload", 0, err)
	}
	if err := w.Close(); err != nil {
		return models.NewRequestFailedError("failed to build upload", 0, err)
	}
	return c.do(ctx, operation, method, path, w.FormDataContentType(), &buf, out)
}

func (c *Client) do(ctx context.Context, operation, method, path, contentType string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.NewRequestFailedError("request canceled", 0, err)
	}

	span, ctx := observability.NewClientSpan(ctx, operation)
	defer span.End()

	status := "error"
	defer c.metrics.TrackRequest(operation, &status)()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		span.SetError(err)
		return models.NewRequestFailedError("failed to build request", 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.New().String())

	hasToken := false
	if c.token != nil {
		if t := c.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
			hasToken = true
		}
	}

	span.AddAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)

	resp, err := c.httpc.Do(req)
	if err != nil {
		span.SetError(err)
		return models.NewRequestFailedError("request failed", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		span.SetError(err)
		return models.NewRequestFailedError("failed to read response", resp.StatusCode, err)
	}

	status = strconv.Itoa(resp.StatusCode)
	span.AddAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				span.SetError(err)
				return models.NewRequestFailedError("failed to decode response", resp.StatusCode, err)
			}
		}
		return nil
	}

	var parsed apiErrorBody
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode == http.StatusUnauthorized && hasToken {
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
		sessionErr := models.NewSessionExpiredError()
		span.SetError(sessionErr)
		return sessionErr
	}

	reqErr := &models.AppError{
		Code:    models.CodeRequestFailed,
		Message: firstNonEmpty(parsed.message(), fmt.Sprintf("%s failed", operation)),
		Fields:  parsed.fields(),
		Status:  resp.StatusCode,
	}
	span.SetError(reqErr)
	c.log.Debug("api request failed",
		"operation", operation,
		"status", resp.StatusCode,
		"message", reqErr.Message,
	)
	return reqErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// StatusOf extracts the HTTP status carried by a client-taxonomy
// error, or 0 when the error never reached the network.
func StatusOf(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}
