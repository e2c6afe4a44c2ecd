package httputil

import (
	"net/http"
	"testing"
	"time"
)

func TestDelayRetryAfterHeader(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "5")

	for _, attempt := range []int{1, 3, 6} {
		d, cause := Delay(attempt, h, time.Now())
		if cause != CauseRetryAfterHeader {
			t.Fatalf("attempt %d: cause = %v, want retry-after", attempt, cause)
		}
		if d != 6*time.Second {
			t.Errorf("attempt %d: delay = %v, want 6s", attempt, d)
		}
	}
}

func TestDelayRateLimitReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset", "1700000010") // 10s after now

	d, cause := Delay(2, h, now)
	if cause != CauseRateLimitReset {
		t.Fatalf("cause = %v, want rate-limit-reset", cause)
	}
	if d != 12*time.Second {
		t.Errorf("delay = %v, want 12s (reset + 2s)", d)
	}
}

func TestDelayRateLimitResetInPast(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset", "1699999000")

	d, cause := Delay(1, h, now)
	if cause != CauseRateLimitReset {
		t.Fatalf("cause = %v, want rate-limit-reset", cause)
	}
	if d != 0 {
		t.Errorf("delay = %v, want 0 for past reset", d)
	}
}

func TestDelayExponentialJitter(t *testing.T) {
	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second}, // 64s capped at 60
		{10, 60 * time.Second},
	}
	for _, tt := range tests {
		d, cause := Delay(tt.attempt, nil, time.Now())
		if cause != CauseExponentialJitter {
			t.Fatalf("attempt %d: cause = %v, want exponential-jitter", tt.attempt, cause)
		}
		lo := tt.base + 500*time.Millisecond
		hi := tt.base + 2*time.Second
		if d < lo || d > hi {
			t.Errorf("attempt %d: delay = %v, want in [%v, %v]", tt.attempt, d, lo, hi)
		}
	}
}

func TestDelayRetryAfterTakesPriority(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "3")
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset", "1700000100")

	_, cause := Delay(1, h, time.Unix(1_700_000_000, 0))
	if cause != CauseRetryAfterHeader {
		t.Errorf("cause = %v, want retry-after to win over rate-limit-reset", cause)
	}
}

func TestDelayMalformedRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")

	_, cause := Delay(1, h, time.Now())
	if cause != CauseExponentialJitter {
		t.Errorf("cause = %v, want fallback for non-integer Retry-After", cause)
	}
}
