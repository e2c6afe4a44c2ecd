package miner

import (
	"time"

	"github.com/AndreHyodo/depmine/pkg/manifest"
	"github.com/AndreHyodo/depmine/pkg/metrics"
)

// MetricsSummary is the slice of a complexity snapshot that candidates
// carry.
type MetricsSummary struct {
	LinesOfCode    int     `json:"lines_of_code"`
	AvgComplexity  float64 `json:"avg_complexity"`
	FilesProcessed int     `json:"files_processed"`
}

func summarize(s *metrics.Snapshot) MetricsSummary {
	if s == nil {
		return MetricsSummary{}
	}
	return MetricsSummary{
		LinesOfCode:    s.LOC,
		AvgComplexity:  s.AvgComplexity,
		FilesProcessed: s.Files,
	}
}

// DepDetails describes the removed dependency itself.
type DepDetails struct {
	VersionsBefore string   `json:"versions_before"`
	VersionsAfter  string   `json:"versions_after,omitempty"`
	File           string   `json:"file"`
	CVECount       int      `json:"cve_count"`
	CVEIDs         []string `json:"cve_ids"`
}

// Candidate is one mined observation: a dependency removed in one
// commit, with complexity snapshots of the parent ("before") and the
// commit itself ("after").
type Candidate struct {
	Repo          string         `json:"repo"`
	Commit        string         `json:"commit"`
	Parent        string         `json:"parent"`
	CommitMessage string         `json:"commit_message"`
	CommitDate    time.Time      `json:"commit_date"`
	RemovedDep    string         `json:"removed_dep"`
	Details       DepDetails     `json:"removed_dep_details"`
	MetricsBefore MetricsSummary `json:"metrics_before"`
	MetricsAfter  MetricsSummary `json:"metrics_after"`

	// ManifestBefore and ManifestAfter hold the changed manifest as
	// parsed at the parent and at the commit. Populated only when
	// snapshots are enabled in the config.
	ManifestBefore *manifest.Manifest `json:"manifest_before,omitempty"`
	ManifestAfter  *manifest.Manifest `json:"manifest_after,omitempty"`
}

// Target is a surveyed repository that qualifies for mining. The
// advisory fields are zero until [Miner.Audit] fills them:
// VulnerableDeps sums the advisory counts over the target's runtime
// dependencies, CVEs collects their identifiers.
type Target struct {
	Owner           string   `json:"owner"`
	Name            string   `json:"name"`
	Stars           int      `json:"stars"`
	Forks           int      `json:"forks"`
	ManifestPath    string   `json:"manifest_path"`
	DependencyCount int      `json:"dependency_count"`
	DevDependencies int      `json:"dev_dependency_count"`
	VulnerableDeps  int      `json:"vulnerable_deps"`
	CVEs            []string `json:"cves,omitempty"`

	// deps holds the unique runtime dependency names the survey saw,
	// so an audit can resolve advisories without refetching manifests.
	deps []string
}

// FullName returns the owner/name slug.
func (t Target) FullName() string { return t.Owner + "/" + t.Name }
