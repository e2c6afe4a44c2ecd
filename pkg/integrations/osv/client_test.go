package osv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AndreHyodo/depmine/pkg/cache"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(cache.NewFileCache(t.TempDir()))
	client.baseURL = srv.URL
	return client
}

func TestQueryPackage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Package struct {
				Name      string `json:"name"`
				Ecosystem string `json:"ecosystem"`
			} `json:"package"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Package.Name != "event-stream" || req.Package.Ecosystem != "npm" {
			t.Errorf("query = %+v", req.Package)
		}
		w.Write([]byte(`{"vulns": [{"id": "GHSA-mh6f-8j2x-4483"}, {"id": "MAL-0001"}]}`))
	})

	ids, err := client.QueryPackage(context.Background(), "event-stream")
	if err != nil {
		t.Fatalf("QueryPackage: %v", err)
	}
	if len(ids) != 2 || ids[0] != "GHSA-mh6f-8j2x-4483" {
		t.Errorf("ids = %v", ids)
	}
}

func TestQueryPackageNoVulns(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	ids, err := client.QueryPackage(context.Background(), "left-pad")
	if err != nil {
		t.Fatalf("QueryPackage: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want empty", ids)
	}
}

func TestQueryPackageUsesCache(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"vulns": [{"id": "X"}]}`))
	})

	for i := 0; i < 3; i++ {
		if _, err := client.QueryPackage(context.Background(), "lodash"); err != nil {
			t.Fatalf("QueryPackage: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
}
