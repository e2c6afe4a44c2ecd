package httputil

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// Cause identifies which backoff policy produced a retry delay.
type Cause int

const (
	// CauseExponentialJitter is the fallback policy: min(60, 2^attempt)
	// seconds plus uniform jitter in [0.5, 2.0).
	CauseExponentialJitter Cause = iota

	// CauseRetryAfterHeader means the response carried a Retry-After
	// header; the delay is that many seconds plus one.
	CauseRetryAfterHeader

	// CauseRateLimitReset means X-RateLimit-Remaining was zero and
	// X-RateLimit-Reset held an epoch timestamp; the delay runs until
	// that timestamp plus two seconds.
	CauseRateLimitReset
)

// String returns a short name for the cause, used in debug logs.
func (c Cause) String() string {
	switch c {
	case CauseRetryAfterHeader:
		return "retry-after"
	case CauseRateLimitReset:
		return "rate-limit-reset"
	default:
		return "exponential-jitter"
	}
}

const maxBackoffBase = 60 * time.Second

// Delay computes how long to sleep before retry number attempt (1-based),
// given the headers of the failed response. Header-driven policies take
// priority over exponential backoff; header may be nil for network-level
// failures.
func Delay(attempt int, header http.Header, now time.Time) (time.Duration, Cause) {
	if header != nil {
		if ra := header.Get("Retry-After"); ra != "" {
			if sec, err := strconv.Atoi(ra); err == nil {
				return time.Duration(sec+1) * time.Second, CauseRetryAfterHeader
			}
		}
		if header.Get("X-RateLimit-Remaining") == "0" {
			if reset := header.Get("X-RateLimit-Reset"); reset != "" {
				if ts, err := strconv.ParseInt(reset, 10, 64); err == nil {
					wait := time.Unix(ts, 0).Sub(now) + 2*time.Second
					return max(wait, 0), CauseRateLimitReset
				}
			}
		}
	}

	base := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	base = min(base, maxBackoffBase)
	jitter := time.Duration((0.5 + rand.Float64()*1.5) * float64(time.Second))
	return base + jitter, CauseExponentialJitter
}
