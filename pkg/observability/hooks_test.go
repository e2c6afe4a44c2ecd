package observability

import (
	"context"
	"testing"
	"time"
)

type countingMiningHooks struct {
	repos, candidates int
}

func (h *countingMiningHooks) OnRepoStart(context.Context, string) { h.repos++ }
func (h *countingMiningHooks) OnRepoComplete(context.Context, string, int, time.Duration, error) {
}
func (h *countingMiningHooks) OnCandidate(context.Context, string, string, string) {
	h.candidates++
}

func TestSetAndGetMiningHooks(t *testing.T) {
	t.Cleanup(Reset)

	h := &countingMiningHooks{}
	SetMiningHooks(h)

	Mining().OnRepoStart(context.Background(), "o/r")
	Mining().OnCandidate(context.Background(), "o/r", "left-pad", "abc")

	if h.repos != 1 || h.candidates != 1 {
		t.Errorf("hooks saw %d repos, %d candidates", h.repos, h.candidates)
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	t.Cleanup(Reset)

	h := &countingMiningHooks{}
	SetMiningHooks(h)
	SetMiningHooks(nil)

	Mining().OnRepoStart(context.Background(), "o/r")
	if h.repos != 1 {
		t.Error("nil registration replaced the active hooks")
	}
}

func TestDefaultsAreNoops(t *testing.T) {
	Reset()
	// Must not panic.
	Mining().OnRepoComplete(context.Background(), "o/r", 0, time.Second, nil)
	Cache().OnCacheHit(context.Background(), "github")
	HTTP().OnRetry(context.Background(), 1, time.Second)
}
