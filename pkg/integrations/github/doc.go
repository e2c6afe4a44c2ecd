// Package github implements the GitHub API client used for repository
// mining: repository search, commit listings, commit detail with patch
// text, git tree and blob access, and a GraphQL batch path for fetching
// manifests across many repositories in a single request.
//
// All requests go through the shared retrying transport, so secondary
// rate limits and transient server errors are absorbed below this layer.
// Immutable git objects (blobs, trees, commit details addressed by SHA)
// are cached with a long TTL; search results and commit listings use a
// short one.
package github
