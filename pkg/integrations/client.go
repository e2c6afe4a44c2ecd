package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/AndreHyodo/depmine/pkg/cache"
	"github.com/AndreHyodo/depmine/pkg/httputil"
)

// Client provides shared HTTP functionality for the API clients: JSON
// requests through the retrying transport plus response caching.
type Client struct {
	transport *httputil.Client
	cache     cache.Cache
}

// NewClient creates a Client over the given transport. Pass nil for c to
// disable caching.
func NewClient(transport *httputil.Client, c cache.Cache) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{transport: transport, cache: c}
}

// WithTimeout returns a derived Client whose attempts are bounded by d.
// The cache and the transport's limiter are shared with the original.
func (c *Client) WithTimeout(d time.Duration) *Client {
	return &Client{transport: c.transport.WithTimeout(d), cache: c.cache}
}

// GetJSON performs a GET request and decodes the JSON response into v.
// A 404 maps to [ErrNotFound]; an undecodable body maps to [ErrDecode].
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	resp, err := c.transport.Do(ctx, http.MethodGet, rawURL, params, nil)
	if err != nil {
		return mapRequestError(err)
	}
	if err := resp.JSON(v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// PostJSON performs a POST request with a JSON body and decodes the JSON
// response into v.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, v any) error {
	resp, err := c.transport.Do(ctx, http.MethodPost, rawURL, nil, body)
	if err != nil {
		return mapRequestError(err)
	}
	if err := resp.JSON(v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// Cached retrieves a value from the cache or executes fetch and caches
// the result. fetch should populate v; on success v is stored under key
// with the given TTL. Cache read/write failures are ignored — the cache
// is an optimization, never a correctness dependency.
func (c *Client) Cached(ctx context.Context, key string, ttl time.Duration, v any, fetch func() error) error {
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		if err := json.Unmarshal(data, v); err == nil {
			return nil
		}
	}
	if err := fetch(); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, ttl)
	}
	return nil
}

// mapRequestError converts transport errors into the package's error
// taxonomy: a rejected 404 becomes ErrNotFound, everything else passes
// through (ExhaustedError for spent retry budgets, context errors, other
// RejectedError statuses).
func mapRequestError(err error) error {
	var rejected *httputil.RejectedError
	if errors.As(err, &rejected) && rejected.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, rejected.URL)
	}
	return err
}
