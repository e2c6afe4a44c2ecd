package integrations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AndreHyodo/depmine/pkg/cache"
	"github.com/AndreHyodo/depmine/pkg/httputil"
)

func newTestClient(t *testing.T, c cache.Cache) (*Client, func(http.HandlerFunc) string) {
	t.Helper()
	var srv *httptest.Server
	serve := func(h http.HandlerFunc) string {
		srv = httptest.NewServer(h)
		t.Cleanup(srv.Close)
		return srv.URL
	}
	transport := httputil.NewClient(5*time.Second, nil, httputil.WithMaxAttempts(1))
	return NewClient(transport, c), serve
}

func TestWithTimeoutSharesCache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewFileCache(t.TempDir())
	defer store.Close()

	client, serve := newTestClient(t, store)
	calls := 0
	url := serve(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"n":1}`))
	})

	var out map[string]int
	fetch := func(c *Client) error {
		return c.Cached(ctx, "tier:k", time.Minute, &out, func() error {
			return c.GetJSON(ctx, url, nil, &out)
		})
	}
	if err := fetch(client); err != nil {
		t.Fatalf("Cached: %v", err)
	}
	if err := fetch(client.WithTimeout(time.Second)); err != nil {
		t.Fatalf("Cached via derived client: %v", err)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want the derived client to hit the shared cache", calls)
	}
}

func TestGetJSON(t *testing.T) {
	client, serve := newTestClient(t, nil)
	url := serve(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"left-pad"}`))
	})

	var out struct {
		Name string `json:"name"`
	}
	if err := client.GetJSON(context.Background(), url, nil, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Name != "left-pad" {
		t.Errorf("name = %q, want left-pad", out.Name)
	}
}

func TestGetJSONNotFound(t *testing.T) {
	client, serve := newTestClient(t, nil)
	url := serve(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	var out map[string]any
	err := client.GetJSON(context.Background(), url, nil, &out)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetJSONDecodeError(t *testing.T) {
	client, serve := newTestClient(t, nil)
	url := serve(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	var out map[string]any
	err := client.GetJSON(context.Background(), url, nil, &out)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

func TestPostJSON(t *testing.T) {
	client, serve := newTestClient(t, nil)
	url := serve(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		w.Write([]byte(`{"ok":true}`))
	})

	var out struct {
		OK bool `json:"ok"`
	}
	body := map[string]string{"package": "lodash"}
	if err := client.PostJSON(context.Background(), url, body, &out); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if !out.OK {
		t.Error("expected ok response")
	}
}

func TestCached(t *testing.T) {
	client, serve := newTestClient(t, cache.NewFileCache(t.TempDir()))
	calls := 0
	url := serve(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"value":42}`))
	})

	fetchInto := func(v *map[string]int) func() error {
		return func() error {
			return client.GetJSON(context.Background(), url, nil, v)
		}
	}

	var first map[string]int
	if err := client.Cached(context.Background(), "k", time.Hour, &first, fetchInto(&first)); err != nil {
		t.Fatalf("Cached: %v", err)
	}
	var second map[string]int
	if err := client.Cached(context.Background(), "k", time.Hour, &second, fetchInto(&second)); err != nil {
		t.Fatalf("Cached: %v", err)
	}

	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
	if second["value"] != 42 {
		t.Errorf("cached value = %d, want 42", second["value"])
	}
}

func TestCachedFetchError(t *testing.T) {
	client, _ := newTestClient(t, cache.NewFileCache(t.TempDir()))
	sentinel := errors.New("boom")

	var v int
	err := client.Cached(context.Background(), "k", time.Hour, &v, func() error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want sentinel", err)
	}
}
