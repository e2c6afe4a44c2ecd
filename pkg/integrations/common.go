package integrations

import (
	"errors"
	"time"
)

// Per-endpoint timeouts. These bound a single HTTP attempt, independent
// of the retry loop's own backoff sleeps.
const (
	// TimeoutShort suits lightweight metadata endpoints (commit listing,
	// commit detail, file contents).
	TimeoutShort = 20 * time.Second

	// TimeoutDefault suits search and batched query endpoints.
	TimeoutDefault = 30 * time.Second

	// TimeoutLong suits potentially large payloads (recursive trees,
	// blobs).
	TimeoutLong = 60 * time.Second
)

var (
	// ErrNotFound is returned when a remote resource does not exist.
	// Callers treat the item as absent rather than failing the batch.
	ErrNotFound = errors.New("resource not found")

	// ErrDecode is returned when a response body cannot be decoded
	// (malformed JSON, invalid base64, binary content). The item is
	// skipped; it contributes nothing to aggregates.
	ErrDecode = errors.New("content decode error")
)
