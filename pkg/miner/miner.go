package miner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/AndreHyodo/depmine/pkg/integrations/github"
	"github.com/AndreHyodo/depmine/pkg/manifest"
	"github.com/AndreHyodo/depmine/pkg/metrics"
	"github.com/AndreHyodo/depmine/pkg/observability"
	"github.com/AndreHyodo/depmine/pkg/vuln"
)

// Platform is the slice of the hosting API the miner consumes.
type Platform interface {
	SearchTopRepos(ctx context.Context, query string, limit int) ([]github.Repo, error)
	BatchManifests(ctx context.Context, repos []github.Repo, path string) (map[string]string, error)
	FileAtRef(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
	Tree(ctx context.Context, owner, repo, ref string) (*github.Tree, error)
	ListCommitsTouchingPath(ctx context.Context, owner, repo, path string, since time.Time, limit int) ([]github.Commit, error)
	Commit(ctx context.Context, owner, repo, sha string) (*github.CommitDetail, error)
}

// Analyzer computes a complexity snapshot for one tree.
type Analyzer interface {
	Snapshot(ctx context.Context, owner, repo, treeSHA string) (*metrics.Snapshot, error)
}

// VulnSource resolves advisory records for package names.
type VulnSource interface {
	Lookup(ctx context.Context, name string) vuln.Record
}

// Config controls one mining run.
type Config struct {
	// ManifestPath is the dependency manifest scanned for removals.
	ManifestPath string
	// DaysBack excludes commits older than this many days.
	DaysBack int
	// LimitCommits caps how many manifest-touching commits are listed
	// per repository.
	LimitCommits int
	// MaxCandidates stops a repository's scan once this many candidates
	// were emitted.
	MaxCandidates int
	// Workers bounds how many repositories are mined in parallel.
	Workers int
	// IncludeSnapshots attaches the parsed manifest at the parent and
	// the commit to every candidate.
	IncludeSnapshots bool
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.ManifestPath == "" {
		c.ManifestPath = "package.json"
	}
	if c.DaysBack <= 0 {
		c.DaysBack = 365
	}
	if c.LimitCommits <= 0 {
		c.LimitCommits = 50
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 1
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c
}

// Miner runs the mining pipeline.
type Miner struct {
	platform Platform
	analyzer Analyzer
	vulns    VulnSource
	cfg      Config
	logger   *log.Logger
	now      func() time.Time
}

// New creates a Miner.
func New(platform Platform, analyzer Analyzer, vulns VulnSource, cfg Config, logger *log.Logger) *Miner {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Miner{
		platform: platform,
		analyzer: analyzer,
		vulns:    vulns,
		cfg:      cfg.WithDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// MineRepo scans one repository sequentially: list manifest-touching
// commits newest first, extract dependency removals per commit, compute
// before/after snapshots, and attach vulnerability counts. The scan
// stops once the candidate cap is reached or the commit list is
// exhausted.
func (m *Miner) MineRepo(ctx context.Context, owner, name string) ([]Candidate, error) {
	repo := owner + "/" + name
	started := m.now()
	observability.Mining().OnRepoStart(ctx, repo)

	candidates, err := m.mineRepo(ctx, owner, name)
	observability.Mining().OnRepoComplete(ctx, repo, len(candidates), m.now().Sub(started), err)
	return candidates, err
}

func (m *Miner) mineRepo(ctx context.Context, owner, name string) ([]Candidate, error) {
	repo := owner + "/" + name
	cutoff := m.now().AddDate(0, 0, -m.cfg.DaysBack)

	commits, err := m.platform.ListCommitsTouchingPath(ctx, owner, name, m.cfg.ManifestPath, cutoff, m.cfg.LimitCommits)
	if err != nil {
		return nil, fmt.Errorf("list commits for %s: %w", repo, err)
	}

	var candidates []Candidate
	for _, commit := range commits {
		if ctx.Err() != nil {
			return candidates, ctx.Err()
		}
		// Listing is newest first, so the first dated commit past the
		// cutoff ends the scan. Commits without a usable date are kept.
		if !commit.Date.IsZero() && commit.Date.Before(cutoff) {
			break
		}
		// An initial commit has no before state.
		if len(commit.Parents) == 0 {
			continue
		}

		emitted, err := m.mineCommit(ctx, owner, name, commit.SHA)
		if err != nil {
			m.logger.Warn("skipping commit", "repo", repo, "commit", commit.SHA, "error", err)
			continue
		}
		for _, c := range emitted {
			observability.Mining().OnCandidate(ctx, repo, c.RemovedDep, c.Commit)
		}
		candidates = append(candidates, emitted...)

		if len(candidates) >= m.cfg.MaxCandidates {
			break
		}
	}
	return candidates, nil
}

// mineCommit extracts dependency changes from one commit and builds a
// candidate per removed dependency. Multiple manifest files in the same
// commit each contribute their own candidates.
func (m *Miner) mineCommit(ctx context.Context, owner, name, sha string) ([]Candidate, error) {
	detail, err := m.platform.Commit(ctx, owner, name, sha)
	if err != nil {
		return nil, err
	}
	if len(detail.Parents) == 0 {
		return nil, nil
	}

	var changes []manifest.Change
	for _, file := range detail.Files {
		if !manifest.IsManifestPath(file.Filename) || file.Patch == "" {
			continue
		}
		changes = append(changes, manifest.ExtractChanges(file.Filename, file.Patch)...)
	}
	if len(changes) == 0 {
		return nil, nil
	}

	parent := detail.Parents[0]
	before := m.snapshotForCommit(ctx, owner, name, parent)
	after := m.snapshot(ctx, owner, name, detail.TreeSHA)

	repo := owner + "/" + name
	candidates := make([]Candidate, 0, len(changes))
	snapshotted := map[string][2]*manifest.Manifest{}
	for _, change := range changes {
		rec := m.vulns.Lookup(ctx, change.Name)
		var mfBefore, mfAfter *manifest.Manifest
		if m.cfg.IncludeSnapshots {
			pair, ok := snapshotted[change.Path]
			if !ok {
				pair = [2]*manifest.Manifest{
					m.manifestAt(ctx, owner, name, change.Path, parent),
					m.manifestAt(ctx, owner, name, change.Path, detail.SHA),
				}
				snapshotted[change.Path] = pair
			}
			mfBefore, mfAfter = pair[0], pair[1]
		}
		candidates = append(candidates, Candidate{
			Repo:          repo,
			Commit:        detail.SHA,
			Parent:        parent,
			CommitMessage: detail.Message,
			CommitDate:    detail.Date,
			RemovedDep:    change.Name,
			Details: DepDetails{
				VersionsBefore: change.VersionBefore,
				VersionsAfter:  change.VersionAfter,
				File:           change.Path,
				CVECount:       rec.Count,
				CVEIDs:         rec.IDs,
			},
			MetricsBefore:  before,
			MetricsAfter:   after,
			ManifestBefore: mfBefore,
			ManifestAfter:  mfAfter,
		})
	}
	return candidates, nil
}

// manifestAt fetches and parses one manifest at a ref. Snapshots are
// best effort; any failure yields nil.
func (m *Miner) manifestAt(ctx context.Context, owner, name, path, ref string) *manifest.Manifest {
	content, err := m.platform.FileAtRef(ctx, owner, name, path, ref)
	if err != nil {
		m.logger.Warn("manifest snapshot unavailable", "repo", owner+"/"+name, "path", path, "ref", ref, "error", err)
		return nil
	}
	parsed, err := manifest.Parse(content)
	if err != nil {
		m.logger.Warn("manifest snapshot unparseable", "repo", owner+"/"+name, "path", path, "ref", ref, "error", err)
		return nil
	}
	return parsed
}

// snapshotForCommit resolves a commit SHA to its tree before
// snapshotting it.
func (m *Miner) snapshotForCommit(ctx context.Context, owner, name, sha string) MetricsSummary {
	detail, err := m.platform.Commit(ctx, owner, name, sha)
	if err != nil {
		m.logger.Warn("metrics degraded to zero", "repo", owner+"/"+name, "commit", sha, "error", err)
		return MetricsSummary{}
	}
	return m.snapshot(ctx, owner, name, detail.TreeSHA)
}

// snapshot degrades to a zeroed summary on failure; candidates are
// still emitted with whatever metrics survived.
func (m *Miner) snapshot(ctx context.Context, owner, name, treeSHA string) MetricsSummary {
	snap, err := m.analyzer.Snapshot(ctx, owner, name, treeSHA)
	if err != nil {
		m.logger.Warn("metrics degraded to zero", "repo", owner+"/"+name, "tree", treeSHA, "error", err)
		return MetricsSummary{}
	}
	return summarize(snap)
}
