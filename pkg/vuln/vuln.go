// Package vuln resolves known-vulnerability counts for npm packages. It
// wraps the OSV client with an in-memory table that can be persisted as
// a flat JSON file, so repeated mining runs over the same packages never
// requery the API. Lookup failures degrade to a zero count: vulnerability
// data enriches results, it never blocks them.
package vuln

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// Querier is the slice of the OSV client the service needs.
type Querier interface {
	QueryPackage(ctx context.Context, name string) ([]string, error)
}

// Record holds the resolved advisories for one package.
type Record struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// Service caches vulnerability lookups by package name.
type Service struct {
	querier Querier
	logger  *log.Logger

	mu      sync.RWMutex
	records map[string]Record
}

// NewService creates a Service backed by the given querier.
func NewService(querier Querier, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Service{
		querier: querier,
		logger:  logger,
		records: make(map[string]Record),
	}
}

// Lookup returns the advisory record for a package, querying OSV on a
// miss. A failed query is logged and reported as zero advisories, and
// the empty record is cached so the run does not hammer a failing API.
func (s *Service) Lookup(ctx context.Context, name string) Record {
	s.mu.RLock()
	rec, ok := s.records[name]
	s.mu.RUnlock()
	if ok {
		return rec
	}

	ids, err := s.querier.QueryPackage(ctx, name)
	if err != nil {
		s.logger.Warn("vulnerability lookup failed", "package", name, "error", err)
		ids = nil
	}
	rec = Record{Count: len(ids), IDs: ids}

	s.mu.Lock()
	s.records[name] = rec
	s.mu.Unlock()
	return rec
}

// Load replaces the in-memory table with the contents of a previously
// saved file. A missing or corrupt file leaves the table empty.
func (s *Service) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("discarding corrupt vulnerability cache", "path", path, "error", err)
		return nil
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// Save writes the in-memory table to path as JSON.
func (s *Service) Save(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Len reports the number of cached package records.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
