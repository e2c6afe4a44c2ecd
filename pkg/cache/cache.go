// Package cache provides response caching for the remote API clients.
//
// Cache keys are namespaced strings built by the clients (for example
// "github:tree:<owner>/<repo>:<sha>"). Values are opaque byte slices;
// the clients JSON-encode whatever they store. Entries carry a TTL and
// expired entries are treated as misses and removed lazily on read.
//
// Two implementations exist: [FileCache] for normal CLI runs (entries
// under ~/.cache/depmine/) and [NullCache] when caching is disabled.
package cache

import (
	"context"
	"time"
)

// TTLs for the different classes of cached data. Immutable objects
// (commit trees, blobs) can live much longer than mutable listings.
const (
	// TTLListing covers commit listings and search results, which change
	// as repositories move forward.
	TTLListing = 6 * time.Hour

	// TTLImmutable covers content-addressed objects: a tree or blob SHA
	// never changes meaning.
	TTLImmutable = 30 * 24 * time.Hour

	// TTLVulnerability covers OSV query results.
	TTLVulnerability = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss
	// (including expired entries).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means the entry
	// never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}
