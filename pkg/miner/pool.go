package miner

import (
	"context"
	"sync"
)

// Mine scans every target with a bounded worker pool. Each repository
// is mined sequentially by exactly one worker; candidates are appended
// in completion order, so callers must not assume any cross-repository
// ordering. A failing repository is logged and skipped, never fatal to
// the run.
func (m *Miner) Mine(ctx context.Context, targets []Target) ([]Candidate, error) {
	jobs := make(chan Target)
	results := make(chan []Candidate)

	var wg sync.WaitGroup
	for range m.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range jobs {
				if ctx.Err() != nil {
					results <- nil
					continue
				}
				candidates, err := m.MineRepo(ctx, target.Owner, target.Name)
				if err != nil && ctx.Err() == nil {
					m.logger.Warn("repository scan failed", "repo", target.FullName(), "error", err)
				}
				results <- candidates
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, target := range targets {
			select {
			case jobs <- target:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []Candidate
	for candidates := range results {
		all = append(all, candidates...)
	}
	if err := ctx.Err(); err != nil {
		return all, err
	}
	return all, nil
}
