// Package httputil provides the resilient HTTP layer used by all remote
// API clients.
//
// # Overview
//
// Every request to the hosting platform or the vulnerability database goes
// through [Client.Do], which handles:
//
//   - Automatic retry for transient failures (network errors and the
//     retryable status set {429, 403, 502, 503, 504})
//   - Header-driven backoff: Retry-After and X-RateLimit-Reset are honored
//     before falling back to exponential backoff with jitter
//   - Optional client-side request pacing via a token-bucket limiter
//
// # Backoff
//
// The delay before each retry is computed by [Delay], which reports the
// policy that produced it as a [Cause]:
//
//   - [CauseRetryAfterHeader]: the response carried Retry-After; sleep
//     that many seconds plus one.
//   - [CauseRateLimitReset]: the rate-limit window is exhausted
//     (X-RateLimit-Remaining is zero); sleep until X-RateLimit-Reset plus
//     two seconds.
//   - [CauseExponentialJitter]: min(60, 2^attempt) seconds plus uniform
//     jitter in [0.5, 2.0).
//
// Backoff sleeps respect context cancellation.
//
// # Errors
//
// Exhausting the retry budget yields an [ExhaustedError] carrying the last
// observed status and body. A non-retryable 4xx fails immediately with a
// [RejectedError]. Callers treat rejected items as absent rather than
// aborting a batch.
package httputil
