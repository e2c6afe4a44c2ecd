package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/AndreHyodo/depmine/pkg/cache"
	"github.com/AndreHyodo/depmine/pkg/httputil"
	"github.com/AndreHyodo/depmine/pkg/integrations"
)

const (
	defaultBaseURL = "https://api.github.com"

	// SearchPerPage is the page size used for repository search.
	SearchPerPage = 100

	// requestsPerSecond paces authenticated REST calls well below the
	// primary quota so long mining runs never trip it.
	requestsPerSecond = 8
)

// Client provides access to the GitHub REST and GraphQL APIs. It handles
// caching, pacing, and automatic retries through the shared transport.
// Endpoints run in three timeout tiers: the embedded client covers
// metadata calls, search covers search and the GraphQL batch, objects
// covers trees and blobs.
type Client struct {
	*integrations.Client
	search  *integrations.Client
	objects *integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client. Pass an empty token for
// unauthenticated requests (much lower rate limits). A nil cache
// disables caching.
func NewClient(token string, store cache.Cache) *Client {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	transport := httputil.NewClient(
		integrations.TimeoutShort,
		headers,
		httputil.WithLimiter(rate.NewLimiter(rate.Limit(requestsPerSecond), 1)),
	)
	base := integrations.NewClient(transport, store)
	return &Client{
		Client:  base,
		search:  base.WithTimeout(integrations.TimeoutDefault),
		objects: base.WithTimeout(integrations.TimeoutLong),
		baseURL: defaultBaseURL,
	}
}

// SearchTopRepos searches repositories matching query, ordered by stars
// descending, and returns up to limit results. The search index caps out
// at 1000 results per query regardless of limit.
func (c *Client) SearchTopRepos(ctx context.Context, query string, limit int) ([]Repo, error) {
	key := "github:search:" + query + ":" + strconv.Itoa(limit)

	var repos []Repo
	err := c.Cached(ctx, key, cache.TTLListing, &repos, func() error {
		var err error
		repos, err = c.searchRepos(ctx, query, limit)
		return err
	})
	return repos, err
}

func (c *Client) searchRepos(ctx context.Context, query string, limit int) ([]Repo, error) {
	var repos []Repo
	for page := 1; len(repos) < limit; page++ {
		params := url.Values{}
		params.Set("q", query)
		params.Set("sort", "stars")
		params.Set("order", "desc")
		params.Set("per_page", strconv.Itoa(SearchPerPage))
		params.Set("page", strconv.Itoa(page))

		var data searchResponse
		if err := c.search.GetJSON(ctx, c.baseURL+"/search/repositories", params, &data); err != nil {
			return nil, fmt.Errorf("search repositories: %w", err)
		}
		if len(data.Items) == 0 {
			break
		}
		for _, item := range data.Items {
			repos = append(repos, item.toRepo())
			if len(repos) == limit {
				break
			}
		}
		if len(data.Items) < SearchPerPage {
			break
		}
	}
	return repos, nil
}

// ListCommitsTouchingPath lists up to limit commits on the default
// branch that modified path, newest first, restricted to commits after
// since.
func (c *Client) ListCommitsTouchingPath(ctx context.Context, owner, repo, path string, since time.Time, limit int) ([]Commit, error) {
	key := fmt.Sprintf("github:commits:%s/%s:%s:%s:%d", owner, repo, path, since.UTC().Format(time.RFC3339), limit)

	var commits []Commit
	err := c.Cached(ctx, key, cache.TTLListing, &commits, func() error {
		var err error
		commits, err = c.listCommits(ctx, owner, repo, path, since, limit)
		return err
	})
	return commits, err
}

func (c *Client) listCommits(ctx context.Context, owner, repo, path string, since time.Time, limit int) ([]Commit, error) {
	params := url.Values{}
	params.Set("path", path)
	params.Set("per_page", strconv.Itoa(limit))
	if !since.IsZero() {
		params.Set("since", since.UTC().Format(time.RFC3339))
	}

	var data []commitResponse
	reqURL := fmt.Sprintf("%s/repos/%s/%s/commits", c.baseURL, owner, repo)
	if err := c.GetJSON(ctx, reqURL, params, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", err, owner, repo)
		}
		return nil, err
	}

	commits := make([]Commit, 0, len(data))
	for _, cr := range data {
		commits = append(commits, cr.toCommit())
	}
	return commits, nil
}

// Commit fetches a single commit with its changed files and patch text.
// Commits are immutable, so results are cached indefinitely.
func (c *Client) Commit(ctx context.Context, owner, repo, sha string) (*CommitDetail, error) {
	key := "github:commit:" + owner + "/" + repo + ":" + sha

	var detail CommitDetail
	err := c.Cached(ctx, key, cache.TTLImmutable, &detail, func() error {
		var data commitDetailResponse
		reqURL := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.baseURL, owner, repo, sha)
		if err := c.GetJSON(ctx, reqURL, nil, &data); err != nil {
			return err
		}
		detail = data.toDetail()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// refTTL picks a cache lifetime for a git ref. Object SHAs are
// immutable and content-addressed; branch names and the implicit HEAD
// are not, so they expire with listings.
func refTTL(ref string) time.Duration {
	if len(ref) == 40 {
		return cache.TTLImmutable
	}
	return cache.TTLListing
}

// Tree fetches the recursive tree listing for a ref. Tree SHAs resolved
// via [Client.Commit] cache best; branch names are accepted too.
func (c *Client) Tree(ctx context.Context, owner, repo, treeSHA string) (*Tree, error) {
	key := "github:tree:" + owner + "/" + repo + ":" + treeSHA

	var tree Tree
	err := c.Cached(ctx, key, refTTL(treeSHA), &tree, func() error {
		params := url.Values{}
		params.Set("recursive", "1")

		var data treeResponse
		reqURL := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s", c.baseURL, owner, repo, treeSHA)
		if err := c.objects.GetJSON(ctx, reqURL, params, &data); err != nil {
			return err
		}
		tree = data.toTree()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tree, nil
}

// Blob fetches the raw content of a blob by SHA. Blobs are immutable and
// content-addressed, so results are cached indefinitely.
func (c *Client) Blob(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	key := "github:blob:" + sha

	var content []byte
	err := c.Cached(ctx, key, cache.TTLImmutable, &content, func() error {
		var data blobResponse
		reqURL := fmt.Sprintf("%s/repos/%s/%s/git/blobs/%s", c.baseURL, owner, repo, sha)
		if err := c.objects.GetJSON(ctx, reqURL, nil, &data); err != nil {
			return err
		}
		var err error
		content, err = data.decode()
		return err
	})
	return content, err
}

// FileAtRef fetches a single file's content at a given ref via the
// contents API. Returns [integrations.ErrNotFound] when the file does
// not exist at that ref.
func (c *Client) FileAtRef(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	key := "github:file:" + owner + "/" + repo + ":" + ref + ":" + path

	var content []byte
	err := c.Cached(ctx, key, refTTL(ref), &content, func() error {
		params := url.Values{}
		if ref != "" {
			params.Set("ref", ref)
		}

		var data blobResponse
		reqURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, repo, path)
		if err := c.GetJSON(ctx, reqURL, params, &data); err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return fmt.Errorf("%w: %s at %s", err, path, ref)
			}
			return err
		}
		var err error
		content, err = data.decode()
		return err
	})
	return content, err
}

type searchResponse struct {
	Items []repoResponse `json:"items"`
}

type repoResponse struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	Stars         int    `json:"stargazers_count"`
	Forks         int    `json:"forks_count"`
	DefaultBranch string `json:"default_branch"`
	Archived      bool   `json:"archived"`
	Fork          bool   `json:"fork"`
}

func (r repoResponse) toRepo() Repo {
	return Repo{
		Owner:         r.Owner.Login,
		Name:          r.Name,
		Stars:         r.Stars,
		Forks:         r.Forks,
		DefaultBranch: r.DefaultBranch,
		Archived:      r.Archived,
		Fork:          r.Fork,
	}
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message   string `json:"message"`
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
		Tree struct {
			SHA string `json:"sha"`
		} `json:"tree"`
	} `json:"commit"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
}

func (cr commitResponse) toCommit() Commit {
	parents := make([]string, 0, len(cr.Parents))
	for _, p := range cr.Parents {
		parents = append(parents, p.SHA)
	}
	return Commit{
		SHA:     cr.SHA,
		Date:    cr.Commit.Committer.Date,
		Message: cr.Commit.Message,
		Parents: parents,
	}
}

type commitDetailResponse struct {
	commitResponse
	Files []struct {
		Filename string `json:"filename"`
		Status   string `json:"status"`
		Patch    string `json:"patch"`
	} `json:"files"`
}

func (cr commitDetailResponse) toDetail() CommitDetail {
	base := cr.toCommit()
	files := make([]CommitFile, 0, len(cr.Files))
	for _, f := range cr.Files {
		files = append(files, CommitFile(f))
	}
	return CommitDetail{
		SHA:     base.SHA,
		TreeSHA: cr.Commit.Tree.SHA,
		Date:    base.Date,
		Message: base.Message,
		Parents: base.Parents,
		Files:   files,
	}
}

type treeResponse struct {
	SHA  string `json:"sha"`
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
		Size int    `json:"size"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

func (tr treeResponse) toTree() Tree {
	entries := make([]TreeEntry, 0, len(tr.Tree))
	for _, e := range tr.Tree {
		entries = append(entries, TreeEntry(e))
	}
	return Tree{SHA: tr.SHA, Entries: entries, Truncated: tr.Truncated}
}

type blobResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (b blobResponse) decode() ([]byte, error) {
	if b.Encoding != "base64" {
		return []byte(b.Content), nil
	}
	content, err := base64.StdEncoding.DecodeString(stripNewlines(b.Content))
	if err != nil {
		return nil, fmt.Errorf("decode blob: %w", err)
	}
	return content, nil
}

// stripNewlines removes the line breaks GitHub inserts into base64 blob
// payloads.
func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
