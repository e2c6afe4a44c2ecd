// Package osv implements a client for the OSV.dev vulnerability API,
// used to count known advisories against removed npm packages.
package osv

import (
	"context"
	"time"

	"github.com/AndreHyodo/depmine/pkg/cache"
	"github.com/AndreHyodo/depmine/pkg/httputil"
	"github.com/AndreHyodo/depmine/pkg/integrations"
)

const (
	defaultBaseURL = "https://api.osv.dev"

	// queryTimeout is deliberately short: a vulnerability count is
	// enrichment, not a blocking dependency of the mining run.
	queryTimeout = 10 * time.Second
)

// Client queries the OSV API for known vulnerabilities in npm packages.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an OSV client. A nil cache disables caching.
func NewClient(store cache.Cache) *Client {
	transport := httputil.NewClient(queryTimeout, nil)
	return &Client{
		Client:  integrations.NewClient(transport, store),
		baseURL: defaultBaseURL,
	}
}

// QueryPackage returns the advisory identifiers known for an npm package
// across all of its versions.
func (c *Client) QueryPackage(ctx context.Context, name string) ([]string, error) {
	key := "osv:npm:" + name

	var ids []string
	err := c.Cached(ctx, key, cache.TTLVulnerability, &ids, func() error {
		body := queryRequest{}
		body.Package.Name = name
		body.Package.Ecosystem = "npm"

		var resp queryResponse
		if err := c.PostJSON(ctx, c.baseURL+"/v1/query", body, &resp); err != nil {
			return err
		}
		ids = make([]string, 0, len(resp.Vulns))
		for _, v := range resp.Vulns {
			ids = append(ids, v.ID)
		}
		return nil
	})
	return ids, err
}

type queryRequest struct {
	Package struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	} `json:"package"`
}

type queryResponse struct {
	Vulns []struct {
		ID string `json:"id"`
	} `json:"vulns"`
}
