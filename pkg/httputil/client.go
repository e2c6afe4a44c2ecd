package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/AndreHyodo/depmine/pkg/observability"
)

// Retryable statuses: rate limits and transient upstream failures.
// 403 is included because the hosting platform signals secondary rate
// limits with it.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusForbidden:          true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// DefaultMaxAttempts bounds the retry loop in [Client.Do].
const DefaultMaxAttempts = 6

// Response is the subset of an HTTP response that callers consume after
// the retry loop has finished: final status, headers, and a fully-read body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// ExhaustedError is returned when every retry attempt failed.
// It carries the last observed status and body excerpt for diagnostics.
type ExhaustedError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastBody   string
	Err        error // last network-level error, if any
}

func (e *ExhaustedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request exhausted after %d attempts: %s: %v", e.Attempts, e.URL, e.Err)
	}
	return fmt.Sprintf("request exhausted after %d attempts: %s: status %d", e.Attempts, e.URL, e.LastStatus)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// RejectedError is returned for non-retryable 4xx statuses. The request
// is never retried; callers treat the item as absent.
type RejectedError struct {
	URL    string
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("request rejected: %s: status %d", e.URL, e.Status)
}

// Client issues HTTP requests with uniform retry and backoff. It has no
// knowledge of API semantics; typed accessors live in pkg/integrations.
type Client struct {
	http        *http.Client
	headers     map[string]string
	limiter     *rate.Limiter
	maxAttempts int

	// sleep is stubbed in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithLimiter installs a client-side pacing limiter that is waited on
// before every attempt, independent of server-driven backoff.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithMaxAttempts overrides the retry budget.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = max(n, 1) }
}

// NewClient creates a Client with the given per-request timeout and
// default headers applied to every request.
func NewClient(timeout time.Duration, headers map[string]string, opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: timeout},
		headers:     headers,
		maxAttempts: DefaultMaxAttempts,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout returns a copy of the client whose attempts are bounded
// by d instead of the constructor's timeout. The copy shares the
// limiter, headers, and retry budget, so pacing stays global across
// derived clients.
func (c *Client) WithTimeout(d time.Duration) *Client {
	derived := *c
	derived.http = &http.Client{Timeout: d}
	return &derived
}

// Do executes one logical request with retry. params are appended to the
// query string; a non-nil body is JSON-encoded. On success the returned
// Response has a status below 400 and a fully-read body.
func (c *Client) Do(ctx context.Context, method, rawURL string, params url.Values, body any) (*Response, error) {
	target := rawURL
	if len(params) > 0 {
		sep := "?"
		if u, err := url.Parse(rawURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		target = rawURL + sep + params.Encode()
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = data
	}

	var lastStatus int
	var lastBody string
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.attempt(ctx, method, target, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if err := c.backoff(ctx, attempt, nil); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 400 {
			return resp, nil
		}

		lastStatus = resp.StatusCode
		lastBody = excerpt(resp.Body)
		lastErr = nil

		if !retryableStatus[resp.StatusCode] {
			return nil, &RejectedError{URL: rawURL, Status: resp.StatusCode, Body: lastBody}
		}
		if err := c.backoff(ctx, attempt, resp.Header); err != nil {
			return nil, err
		}
	}

	return nil, &ExhaustedError{
		URL:        rawURL,
		Attempts:   c.maxAttempts,
		LastStatus: lastStatus,
		LastBody:   lastBody,
		Err:        lastErr,
	}
}

func (c *Client) attempt(ctx context.Context, method, target string, payload []byte) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	observability.HTTP().OnRequest(ctx, method, req.URL.Host)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, method, req.URL.Host, err)
		return nil, err
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, method, req.URL.Host, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) backoff(ctx context.Context, attempt int, header http.Header) error {
	if attempt >= c.maxAttempts {
		return nil // budget spent, no point sleeping
	}
	d, _ := Delay(attempt, header, time.Now())
	observability.HTTP().OnRetry(ctx, attempt, d)
	return c.sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func excerpt(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
