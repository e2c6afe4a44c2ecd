package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AndreHyodo/depmine/pkg/cache"
)

// graphqlBatchSize is the number of repositories queried per GraphQL
// request. Larger batches start hitting the API's node and complexity
// limits.
const graphqlBatchSize = 40

// BatchManifests fetches the manifest file at path from the default
// branch of every given repository using aliased GraphQL queries. The
// result maps owner/name to the manifest text; repositories without the
// file at HEAD are absent from the map. Repositories are queried in
// batches of 40.
func (c *Client) BatchManifests(ctx context.Context, repos []Repo, path string) (map[string]string, error) {
	manifests := make(map[string]string, len(repos))
	for start := 0; start < len(repos); start += graphqlBatchSize {
		end := min(start+graphqlBatchSize, len(repos))
		batch := repos[start:end]

		key := batchCacheKey(batch, path)
		var got map[string]string
		err := c.Cached(ctx, key, cache.TTLListing, &got, func() error {
			var err error
			got, err = c.queryBatch(ctx, batch, path)
			return err
		})
		if err != nil {
			return nil, err
		}
		for name, text := range got {
			manifests[name] = text
		}
	}
	return manifests, nil
}

func (c *Client) queryBatch(ctx context.Context, repos []Repo, path string) (map[string]string, error) {
	var q strings.Builder
	q.WriteString("query {\n")
	for i, r := range repos {
		fmt.Fprintf(&q, "  r%d: repository(owner: %q, name: %q) { object(expression: %q) { ... on Blob { text } } }\n",
			i, r.Owner, r.Name, "HEAD:"+path)
	}
	q.WriteString("}")

	var resp graphqlResponse
	body := map[string]string{"query": q.String()}
	if err := c.search.PostJSON(ctx, c.baseURL+"/graphql", body, &resp); err != nil {
		return nil, fmt.Errorf("graphql batch: %w", err)
	}

	// Partial errors (e.g. one missing repo in the batch) come back
	// alongside data for the rest; only fail when nothing was returned.
	if len(resp.Data) == 0 {
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("graphql batch: %s", resp.Errors[0].Message)
		}
		return nil, fmt.Errorf("graphql batch: empty response")
	}

	manifests := make(map[string]string)
	for i, r := range repos {
		raw, ok := resp.Data[fmt.Sprintf("r%d", i)]
		if !ok || raw == nil {
			continue
		}
		var obj struct {
			Object *struct {
				Text string `json:"text"`
			} `json:"object"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.Object == nil {
			continue
		}
		manifests[r.FullName()] = obj.Object.Text
	}
	return manifests, nil
}

func batchCacheKey(repos []Repo, path string) string {
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.FullName())
	}
	return "github:graphql:" + path + ":" + cache.Hash([]byte(strings.Join(names, ",")))
}

type graphqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}
