package miner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/AndreHyodo/depmine/pkg/integrations"
	"github.com/AndreHyodo/depmine/pkg/integrations/github"
	"github.com/AndreHyodo/depmine/pkg/manifest"
)

// Discover searches for the most starred repositories matching query,
// dropping archived repositories and forks.
func (m *Miner) Discover(ctx context.Context, query string, limit int) ([]github.Repo, error) {
	repos, err := m.platform.SearchTopRepos(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("discover repositories: %w", err)
	}

	kept := repos[:0]
	for _, r := range repos {
		if r.Archived || r.Fork {
			continue
		}
		kept = append(kept, r)
	}
	m.logger.Info("discovered repositories", "matched", len(repos), "kept", len(kept))
	return kept, nil
}

// Survey narrows discovered repositories to mining targets: those with
// a parseable manifest at the head of the default branch. A batched
// query fetches root manifests for all repositories at once; anything
// the batch missed falls back to a per-repository contents lookup, and
// repositories with no root manifest at all get a tree listing to find
// nested ones. Repositories without any manifest are dropped silently.
func (m *Miner) Survey(ctx context.Context, repos []github.Repo) ([]Target, error) {
	manifests, err := m.platform.BatchManifests(ctx, repos, m.cfg.ManifestPath)
	if err != nil {
		m.logger.Warn("batched manifest fetch failed, falling back per repository", "error", err)
		manifests = map[string]string{}
	}

	var targets []Target
	for _, repo := range repos {
		if ctx.Err() != nil {
			return targets, ctx.Err()
		}
		if target, ok := m.surveyRepo(ctx, repo, manifests); ok {
			targets = append(targets, target)
		}
	}

	m.logger.Info("surveyed repositories", "candidates", len(repos), "targets", len(targets))
	return targets, nil
}

func (m *Miner) surveyRepo(ctx context.Context, repo github.Repo, batch map[string]string) (Target, bool) {
	var parsed []*manifest.Manifest
	pathUsed := m.cfg.ManifestPath

	if text, ok := batch[repo.FullName()]; ok {
		mf, err := manifest.Parse([]byte(text))
		if err != nil {
			m.logger.Warn("unparseable manifest", "repo", repo.FullName(), "error", err)
			return Target{}, false
		}
		parsed = append(parsed, mf)
	} else {
		content, err := m.platform.FileAtRef(ctx, repo.Owner, repo.Name, m.cfg.ManifestPath, "")
		switch {
		case err == nil:
			mf, perr := manifest.Parse(content)
			if perr != nil {
				m.logger.Warn("unparseable manifest", "repo", repo.FullName(), "error", perr)
				return Target{}, false
			}
			parsed = append(parsed, mf)
		case errors.Is(err, integrations.ErrNotFound):
			parsed, pathUsed = m.surveyTree(ctx, repo)
			if len(parsed) == 0 {
				return Target{}, false
			}
		default:
			m.logger.Warn("manifest fetch failed", "repo", repo.FullName(), "error", err)
			return Target{}, false
		}
	}

	// Dependency names are deduplicated across manifests, per section.
	runtime := map[string]struct{}{}
	dev := map[string]struct{}{}
	for _, mf := range parsed {
		for name := range mf.Dependencies {
			runtime[name] = struct{}{}
		}
		for name := range mf.DevDependencies {
			dev[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(runtime))
	for name := range runtime {
		names = append(names, name)
	}
	sort.Strings(names)

	return Target{
		Owner:           repo.Owner,
		Name:            repo.Name,
		Stars:           repo.Stars,
		Forks:           repo.Forks,
		ManifestPath:    pathUsed,
		DependencyCount: len(runtime),
		DevDependencies: len(dev),
		deps:            names,
	}, true
}

// surveyTree handles monorepos whose manifests live below the root: it
// lists the default branch tree and fetches every non-vendored manifest
// it finds, shallower paths first. The reported path joins every
// manifest that parsed.
func (m *Miner) surveyTree(ctx context.Context, repo github.Repo) ([]*manifest.Manifest, string) {
	ref := repo.DefaultBranch
	if ref == "" {
		ref = "HEAD"
	}
	tree, err := m.platform.Tree(ctx, repo.Owner, repo.Name, ref)
	if err != nil {
		m.logger.Warn("tree listing failed", "repo", repo.FullName(), "error", err)
		return nil, ""
	}

	var paths []string
	for _, entry := range tree.Entries {
		if entry.Type == "blob" && manifest.IsManifestPath(entry.Path) {
			paths = append(paths, entry.Path)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], "/"), strings.Count(paths[j], "/")
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})

	var parsed []*manifest.Manifest
	var used []string
	for _, path := range paths {
		content, err := m.platform.FileAtRef(ctx, repo.Owner, repo.Name, path, ref)
		if err != nil {
			continue
		}
		mf, err := manifest.Parse(content)
		if err != nil {
			continue
		}
		parsed = append(parsed, mf)
		used = append(used, path)
	}
	return parsed, strings.Join(used, ",")
}

// Audit resolves advisories for every runtime dependency the survey
// recorded, in parallel across targets. The vulnerability service
// memoizes lookups, so a dependency shared by many targets costs one
// query.
func (m *Miner) Audit(ctx context.Context, targets []Target) []Target {
	audited := make([]Target, len(targets))
	copy(audited, targets)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range m.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				audited[i] = m.auditTarget(ctx, targets[i])
			}
		}()
	}
	for i := range targets {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()
	return audited
}

func (m *Miner) auditTarget(ctx context.Context, t Target) Target {
	ids := map[string]struct{}{}
	for _, name := range t.deps {
		rec := m.vulns.Lookup(ctx, name)
		t.VulnerableDeps += rec.Count
		for _, id := range rec.IDs {
			ids[id] = struct{}{}
		}
	}
	if len(ids) > 0 {
		t.CVEs = make([]string, 0, len(ids))
		for id := range ids {
			t.CVEs = append(t.CVEs, id)
		}
		sort.Strings(t.CVEs)
	}
	return t
}
