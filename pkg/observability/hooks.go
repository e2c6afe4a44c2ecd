// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup to receive events about mining progress, cache
// operations, and outbound HTTP traffic.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetMiningHooks(&myMiningHooks{})
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Mining().OnRepoStart(ctx, repo)
//	// ... mine ...
//	observability.Mining().OnRepoComplete(ctx, repo, candidates, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// MiningHooks receives events from the mining pipeline.
type MiningHooks interface {
	// OnRepoStart records the beginning of one repository's scan.
	OnRepoStart(ctx context.Context, repo string)

	// OnRepoComplete records the end of one repository's scan.
	OnRepoComplete(ctx context.Context, repo string, candidates int, duration time.Duration, err error)

	// OnCandidate records one emitted candidate.
	OnCandidate(ctx context.Context, repo, dependency, commit string)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host string, statusCode int, duration time.Duration)

	// OnRetry records a backoff sleep before a retry attempt.
	OnRetry(ctx context.Context, attempt int, delay time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host string, err error)
}

// NoopMiningHooks is a no-op implementation of MiningHooks.
type NoopMiningHooks struct{}

func (NoopMiningHooks) OnRepoStart(context.Context, string)                               {}
func (NoopMiningHooks) OnRepoComplete(context.Context, string, int, time.Duration, error) {}
func (NoopMiningHooks) OnCandidate(context.Context, string, string, string)               {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnRetry(context.Context, int, time.Duration)                    {}
func (NoopHTTPHooks) OnError(context.Context, string, string, error)                 {}

var (
	miningHooks MiningHooks = NoopMiningHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetMiningHooks registers custom mining hooks.
// This should be called once at application startup before mining begins.
func SetMiningHooks(h MiningHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		miningHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Mining returns the registered mining hooks.
func Mining() MiningHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return miningHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	miningHooks = NoopMiningHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
