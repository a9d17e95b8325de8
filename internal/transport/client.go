// Package transport issues HTTP requests to the analysis backend with
// per-attempt timeouts, bounded retries with exponential backoff, and
// cooperative cancellation. It is safe to retry only because every call
// routed through it is idempotent or safely resubmittable.
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/d-bias/dbias-go/internal/core"
	"github.com/d-bias/dbias-go/internal/logging"
)

// Default timeouts and retry counts for backend calls. Analysis runs
// long on large datasets; everything else should answer quickly.
const (
	DefaultAnalyzeTimeout     = 20 * time.Minute
	DefaultLightweightTimeout = 30 * time.Second
	DefaultMaxRetries         = 1
	DefaultBackoffBase        = 500 * time.Millisecond
)

// Request describes one call to the backend.
type Request struct {
	Method string
	URL    string
	Body   []byte
	Header http.Header

	// Timeout bounds each individual attempt, not the call as a whole.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// RequireSuccess makes non-2xx statuses count as failures (and be
	// retried); when false they are returned to the caller so "not
	// found yet" stays distinguishable from "broken".
	RequireSuccess bool
}

// Response carries the fully-read reply of the winning attempt.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Success reports whether the status is 2xx.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client wraps an http.Client with the retry and backoff policy.
type Client struct {
	httpClient  *http.Client
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	log         *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBackoffBase sets the base backoff delay. Attempt k (0-indexed)
// waits base * 2^k before the next try.
func WithBackoffBase(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoffBase = d
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// withSleeper replaces the backoff wait, for deterministic tests.
func withSleeper(sleep func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient creates a transport client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		// Per-attempt deadlines come from the request context, so the
		// http.Client itself carries no timeout.
		httpClient:  &http.Client{},
		backoffBase: DefaultBackoffBase,
		sleep:       sleepCtx,
		log:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request with retries. Failures that trigger a retry
// are network errors, per-attempt timeouts, and (when RequireSuccess)
// non-2xx statuses with the response body captured into the error.
// Cancellation of ctx aborts the in-flight attempt and all pending
// retries and surfaces as a cancellation-category error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Timeout <= 0 {
		req.Timeout = DefaultLightweightTimeout
	}
	if req.MaxRetries < 0 {
		req.MaxRetries = 0
	}

	log := c.log.WithRequest(req.Method, req.URL)
	attempts := req.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, core.ErrCanceled("request canceled").WithCause(err)
		}

		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		if core.IsCanceled(err) {
			return nil, err
		}
		lastErr = err

		if !core.IsRetryable(err) {
			return nil, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := c.backoffBase << uint(attempt)
		log.Warn("attempt failed, backing off",
			"attempt", attempt+1,
			"delay", delay.String(),
			"error", err.Error())
		if err := c.sleep(ctx, delay); err != nil {
			return nil, core.ErrCanceled("canceled during backoff").WithCause(err)
		}
	}

	var de *core.DomainError
	if errors.As(lastErr, &de) {
		return nil, de.WithDetail("attempts", attempts)
	}
	return nil, lastErr
}

// attempt runs one HTTP exchange under its own deadline and reads the
// body in full.
func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "building request: "+err.Error())
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyAttemptError(ctx, attemptCtx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyAttemptError(ctx, attemptCtx, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}
	if req.RequireSuccess && !resp.Success() {
		return nil, core.ErrHTTPStatus(resp.StatusCode, string(body))
	}
	return resp, nil
}

// classifyAttemptError separates caller cancellation from per-attempt
// timeout from plain network failure.
func classifyAttemptError(callerCtx, attemptCtx context.Context, err error) error {
	if callerCtx.Err() != nil {
		return core.ErrCanceled("request canceled").WithCause(callerCtx.Err())
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return core.ErrTimeout("attempt timed out").WithCause(err)
	}
	return core.ErrNetwork("request failed").WithCause(err)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
