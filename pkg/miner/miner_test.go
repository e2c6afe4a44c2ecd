package miner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AndreHyodo/depmine/pkg/integrations"
	"github.com/AndreHyodo/depmine/pkg/integrations/github"
	"github.com/AndreHyodo/depmine/pkg/metrics"
	"github.com/AndreHyodo/depmine/pkg/vuln"
)

const removalPatch = `@@ -5,7 +5,6 @@
   "dependencies": {
-    "left-pad": "^1.3.0",
     "lodash": "^4.17.21"
   },`

type stubPlatform struct {
	repos     []github.Repo
	manifests map[string]string
	files     map[string][]byte
	trees     map[string]*github.Tree
	commits   map[string][]github.Commit
	details   map[string]*github.CommitDetail
}

func (s *stubPlatform) SearchTopRepos(context.Context, string, int) ([]github.Repo, error) {
	return s.repos, nil
}

func (s *stubPlatform) BatchManifests(context.Context, []github.Repo, string) (map[string]string, error) {
	return s.manifests, nil
}

func (s *stubPlatform) FileAtRef(_ context.Context, owner, repo, path, ref string) ([]byte, error) {
	if content, ok := s.files[owner+"/"+repo+"/"+path+"@"+ref]; ok {
		return content, nil
	}
	if content, ok := s.files[owner+"/"+repo+"/"+path]; ok {
		return content, nil
	}
	return nil, integrations.ErrNotFound
}

func (s *stubPlatform) Tree(_ context.Context, owner, repo, _ string) (*github.Tree, error) {
	if tree, ok := s.trees[owner+"/"+repo]; ok {
		return tree, nil
	}
	return nil, errors.New("no tree for " + owner + "/" + repo)
}

func (s *stubPlatform) ListCommitsTouchingPath(_ context.Context, owner, repo, _ string, _ time.Time, _ int) ([]github.Commit, error) {
	return s.commits[owner+"/"+repo], nil
}

func (s *stubPlatform) Commit(_ context.Context, _, _, sha string) (*github.CommitDetail, error) {
	detail, ok := s.details[sha]
	if !ok {
		return nil, errors.New("unknown commit " + sha)
	}
	return detail, nil
}

type stubAnalyzer struct {
	snaps map[string]*metrics.Snapshot
	err   error
}

func (s *stubAnalyzer) Snapshot(_ context.Context, _, _ string, treeSHA string) (*metrics.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	if snap, ok := s.snaps[treeSHA]; ok {
		return snap, nil
	}
	return &metrics.Snapshot{}, nil
}

type stubVulns struct {
	records map[string]vuln.Record
}

func (s *stubVulns) Lookup(_ context.Context, name string) vuln.Record {
	return s.records[name]
}

func commitAt(sha string, daysAgo int, parents ...string) github.Commit {
	return github.Commit{
		SHA:     sha,
		Date:    time.Now().AddDate(0, 0, -daysAgo),
		Parents: parents,
	}
}

func removalDetail(sha, parent string) *github.CommitDetail {
	return &github.CommitDetail{
		SHA:     sha,
		TreeSHA: "tree-" + sha,
		Date:    time.Now().AddDate(0, 0, -1),
		Message: "remove left-pad",
		Parents: []string{parent},
		Files: []github.CommitFile{
			{Filename: "package.json", Status: "modified", Patch: removalPatch},
		},
	}
}

func parentDetail(sha string) *github.CommitDetail {
	return &github.CommitDetail{
		SHA:     sha,
		TreeSHA: "tree-" + sha,
		Parents: []string{"older"},
	}
}

func TestMineRepoEmitsCandidate(t *testing.T) {
	platform := &stubPlatform{
		commits: map[string][]github.Commit{
			"o/r": {commitAt("c1", 1, "p1")},
		},
		details: map[string]*github.CommitDetail{
			"c1": removalDetail("c1", "p1"),
			"p1": parentDetail("p1"),
		},
	}
	analyzer := &stubAnalyzer{snaps: map[string]*metrics.Snapshot{
		"tree-p1": {LOC: 1200, AvgComplexity: 3.5, Files: 10},
		"tree-c1": {LOC: 1100, AvgComplexity: 3.1, Files: 9},
	}}
	vulns := &stubVulns{records: map[string]vuln.Record{
		"left-pad": {Count: 1, IDs: []string{"CVE-2016-XXXX"}},
	}}

	m := New(platform, analyzer, vulns, Config{}, nil)
	candidates, err := m.MineRepo(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("MineRepo: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}

	c := candidates[0]
	if c.RemovedDep != "left-pad" || c.Commit != "c1" || c.Parent != "p1" {
		t.Errorf("candidate = %+v", c)
	}
	if c.Details.VersionsBefore != "^1.3.0" || c.Details.VersionsAfter != "" {
		t.Errorf("details = %+v", c.Details)
	}
	if c.Details.CVECount != 1 {
		t.Errorf("cve count = %d, want 1", c.Details.CVECount)
	}
	if c.MetricsBefore.LinesOfCode != 1200 || c.MetricsAfter.LinesOfCode != 1100 {
		t.Errorf("metrics = %+v / %+v", c.MetricsBefore, c.MetricsAfter)
	}
}

func TestMineRepoSkipsInitialCommit(t *testing.T) {
	platform := &stubPlatform{
		commits: map[string][]github.Commit{
			"o/r": {commitAt("root", 1)},
		},
	}
	m := New(platform, &stubAnalyzer{}, &stubVulns{}, Config{}, nil)

	candidates, err := m.MineRepo(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("MineRepo: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("candidates = %+v, want none for an initial commit", candidates)
	}
}

func TestMineRepoCandidateCap(t *testing.T) {
	platform := &stubPlatform{
		commits: map[string][]github.Commit{
			"o/r": {commitAt("c1", 1, "p1"), commitAt("c2", 2, "p2")},
		},
		details: map[string]*github.CommitDetail{
			"c1": removalDetail("c1", "p1"),
			"p1": parentDetail("p1"),
			"c2": removalDetail("c2", "p2"),
			"p2": parentDetail("p2"),
		},
	}
	m := New(platform, &stubAnalyzer{}, &stubVulns{}, Config{MaxCandidates: 1}, nil)

	candidates, err := m.MineRepo(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("MineRepo: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Commit != "c1" {
		t.Errorf("candidates = %+v, want just the newest commit", candidates)
	}
}

func TestMineRepoMetricsFailureDegradesToZero(t *testing.T) {
	platform := &stubPlatform{
		commits: map[string][]github.Commit{
			"o/r": {commitAt("c1", 1, "p1")},
		},
		details: map[string]*github.CommitDetail{
			"c1": removalDetail("c1", "p1"),
			"p1": parentDetail("p1"),
		},
	}
	m := New(platform, &stubAnalyzer{err: errors.New("tree fetch failed")}, &stubVulns{}, Config{}, nil)

	candidates, err := m.MineRepo(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("MineRepo: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want the candidate despite metric failure", len(candidates))
	}
	if candidates[0].MetricsBefore != (MetricsSummary{}) || candidates[0].MetricsAfter != (MetricsSummary{}) {
		t.Errorf("metrics = %+v, want zeroed", candidates[0])
	}
}

func TestMineRepoTwoManifestsOneCommit(t *testing.T) {
	detail := removalDetail("c1", "p1")
	detail.Files = append(detail.Files, github.CommitFile{
		Filename: "packages/app/package.json",
		Status:   "modified",
		Patch:    `-    "request": "^2.88.2",`,
	})

	platform := &stubPlatform{
		commits: map[string][]github.Commit{
			"o/r": {commitAt("c1", 1, "p1")},
		},
		details: map[string]*github.CommitDetail{
			"c1": detail,
			"p1": parentDetail("p1"),
		},
	}
	m := New(platform, &stubAnalyzer{}, &stubVulns{}, Config{MaxCandidates: 2}, nil)

	candidates, err := m.MineRepo(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("MineRepo: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
	if candidates[0].Commit != candidates[1].Commit || candidates[0].Parent != candidates[1].Parent {
		t.Error("candidates from one commit must share commit and parent")
	}
	if candidates[0].Details.File == candidates[1].Details.File {
		t.Error("candidates must name their own manifest file")
	}
}

func TestMineRepoKeepsUndatedCommit(t *testing.T) {
	platform := &stubPlatform{
		commits: map[string][]github.Commit{
			"o/r": {{SHA: "c1", Parents: []string{"p1"}}},
		},
		details: map[string]*github.CommitDetail{
			"c1": removalDetail("c1", "p1"),
			"p1": parentDetail("p1"),
		},
	}
	m := New(platform, &stubAnalyzer{}, &stubVulns{}, Config{DaysBack: 365}, nil)

	candidates, err := m.MineRepo(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("MineRepo: %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("candidates = %d, want a commit without a date kept", len(candidates))
	}
}

func TestMineRepoManifestSnapshots(t *testing.T) {
	platform := &stubPlatform{
		commits: map[string][]github.Commit{
			"o/r": {commitAt("c1", 1, "p1")},
		},
		details: map[string]*github.CommitDetail{
			"c1": removalDetail("c1", "p1"),
			"p1": parentDetail("p1"),
		},
		files: map[string][]byte{
			"o/r/package.json@p1": []byte(`{"dependencies": {"left-pad": "^1.3.0", "lodash": "^4.17.21"}}`),
			"o/r/package.json@c1": []byte(`{"dependencies": {"lodash": "^4.17.21"}}`),
		},
	}
	m := New(platform, &stubAnalyzer{}, &stubVulns{}, Config{IncludeSnapshots: true}, nil)

	candidates, err := m.MineRepo(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("MineRepo: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	c := candidates[0]
	if c.ManifestBefore == nil || !c.ManifestBefore.Has("left-pad") {
		t.Errorf("manifest before = %+v, want left-pad present", c.ManifestBefore)
	}
	if c.ManifestAfter == nil || c.ManifestAfter.Has("left-pad") {
		t.Errorf("manifest after = %+v, want left-pad gone", c.ManifestAfter)
	}
}

func TestMineRepoRecencyCutoff(t *testing.T) {
	platform := &stubPlatform{
		commits: map[string][]github.Commit{
			"o/r": {commitAt("old", 400, "p1")},
		},
		details: map[string]*github.CommitDetail{
			"old": removalDetail("old", "p1"),
			"p1":  parentDetail("p1"),
		},
	}
	m := New(platform, &stubAnalyzer{}, &stubVulns{}, Config{DaysBack: 365}, nil)

	candidates, err := m.MineRepo(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("MineRepo: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("candidates = %+v, want none past the cutoff", candidates)
	}
}

func TestMinePool(t *testing.T) {
	platform := &stubPlatform{
		commits: map[string][]github.Commit{
			"o/a": {commitAt("a1", 1, "pa")},
			"o/b": {commitAt("b1", 1, "pb")},
		},
		details: map[string]*github.CommitDetail{
			"a1": removalDetail("a1", "pa"),
			"pa": parentDetail("pa"),
			"b1": removalDetail("b1", "pb"),
			"pb": parentDetail("pb"),
		},
	}
	m := New(platform, &stubAnalyzer{}, &stubVulns{}, Config{Workers: 2}, nil)

	targets := []Target{
		{Owner: "o", Name: "a"},
		{Owner: "o", Name: "b"},
	}
	candidates, err := m.Mine(context.Background(), targets)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("candidates = %d, want one per repository", len(candidates))
	}
}

func TestMineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(&stubPlatform{}, &stubAnalyzer{}, &stubVulns{}, Config{}, nil)
	_, err := m.Mine(ctx, []Target{{Owner: "o", Name: "r"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
