package vuln

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type stubQuerier struct {
	ids   map[string][]string
	err   error
	calls int
}

func (s *stubQuerier) QueryPackage(_ context.Context, name string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.ids[name], nil
}

func TestLookup(t *testing.T) {
	q := &stubQuerier{ids: map[string][]string{"event-stream": {"MAL-0001", "GHSA-x"}}}
	svc := NewService(q, nil)

	rec := svc.Lookup(context.Background(), "event-stream")
	if rec.Count != 2 {
		t.Errorf("count = %d, want 2", rec.Count)
	}
}

func TestLookupMemoizes(t *testing.T) {
	q := &stubQuerier{ids: map[string][]string{"lodash": {"X"}}}
	svc := NewService(q, nil)

	for i := 0; i < 3; i++ {
		svc.Lookup(context.Background(), "lodash")
	}
	if q.calls != 1 {
		t.Errorf("querier calls = %d, want 1", q.calls)
	}
}

func TestLookupFailureIsZero(t *testing.T) {
	q := &stubQuerier{err: errors.New("api down")}
	svc := NewService(q, nil)

	rec := svc.Lookup(context.Background(), "left-pad")
	if rec.Count != 0 {
		t.Errorf("count = %d, want 0", rec.Count)
	}
	// Failure is cached too.
	svc.Lookup(context.Background(), "left-pad")
	if q.calls != 1 {
		t.Errorf("querier calls = %d, want 1", q.calls)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vulns.json")

	q := &stubQuerier{ids: map[string][]string{"a": {"V1"}}}
	svc := NewService(q, nil)
	svc.Lookup(context.Background(), "a")
	if err := svc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := NewService(&stubQuerier{err: errors.New("should not be called")}, nil)
	if err := restored.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	rec := restored.Lookup(context.Background(), "a")
	if rec.Count != 1 || rec.IDs[0] != "V1" {
		t.Errorf("record = %+v", rec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	svc := NewService(&stubQuerier{}, nil)
	if err := svc.Load(filepath.Join(t.TempDir(), "nope.json")); err != nil {
		t.Errorf("Load missing file: %v", err)
	}
	if svc.Len() != 0 {
		t.Errorf("len = %d, want 0", svc.Len())
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vulns.json")
	os.WriteFile(path, []byte("{{{"), 0o644)

	svc := NewService(&stubQuerier{}, nil)
	if err := svc.Load(path); err != nil {
		t.Errorf("Load corrupt file: %v", err)
	}
	if svc.Len() != 0 {
		t.Errorf("len = %d, want 0", svc.Len())
	}
}
