package metrics

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AndreHyodo/depmine/pkg/integrations/github"
)

const (
	// MaxBlobSize caps how large a source file may be before it is
	// skipped. Minified bundles and generated artifacts dominate above
	// this and would drown the signal.
	MaxBlobSize = 1 << 20

	// DefaultFileLimit bounds how many source files one snapshot reads.
	DefaultFileLimit = 200

	// blobCacheSize is the number of decoded blobs kept in memory.
	// Adjacent snapshots (a commit and its parent) share most of their
	// blobs, so even a modest cache removes the bulk of refetches.
	blobCacheSize = 512
)

var sourceSuffixes = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}

var skipSegments = []string{
	"node_modules/",
	"bower_components/",
	"dist/",
	"build/",
	"vendor/",
	".git/",
}

// TreeSource provides read access to git trees and blobs.
type TreeSource interface {
	Tree(ctx context.Context, owner, repo, treeSHA string) (*github.Tree, error)
	Blob(ctx context.Context, owner, repo, sha string) ([]byte, error)
}

// Snapshot summarizes the source complexity of one tree.
type Snapshot struct {
	TreeSHA       string  `json:"tree_sha"`
	Files         int     `json:"files"`
	LOC           int     `json:"loc"`
	Functions     int     `json:"functions"`
	AvgComplexity float64 `json:"avg_complexity"`
	Truncated     bool    `json:"truncated"`
}

// Analyzer computes complexity snapshots from remote trees. Blobs are
// memoized by SHA across calls, so snapshotting a commit and its parent
// only fetches the files that actually changed.
type Analyzer struct {
	source    TreeSource
	strategy  Strategy
	fileLimit int
	blobs     *lru.Cache[string, []byte]
	logger    *log.Logger
}

// NewAnalyzer creates an Analyzer using the given strategy. fileLimit
// bounds the files read per snapshot; pass 0 for the default.
func NewAnalyzer(source TreeSource, strategy Strategy, fileLimit int, logger *log.Logger) *Analyzer {
	if fileLimit <= 0 {
		fileLimit = DefaultFileLimit
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	blobs, _ := lru.New[string, []byte](blobCacheSize)
	return &Analyzer{
		source:    source,
		strategy:  strategy,
		fileLimit: fileLimit,
		blobs:     blobs,
		logger:    logger,
	}
}

// Snapshot walks the tree at treeSHA and aggregates the strategy's
// results over every eligible source file. Eligible files carry a
// JavaScript or TypeScript extension, sit outside vendored directories,
// and stay under the blob size cap. Truncated is set when the file
// limit cut the walk short or the tree listing itself was incomplete.
func (a *Analyzer) Snapshot(ctx context.Context, owner, repo, treeSHA string) (*Snapshot, error) {
	tree, err := a.source.Tree(ctx, owner, repo, treeSHA)
	if err != nil {
		return nil, fmt.Errorf("fetch tree %s: %w", treeSHA, err)
	}

	snap := &Snapshot{TreeSHA: treeSHA, Truncated: tree.Truncated}
	var contribution float64

	var candidates []github.TreeEntry
	for _, entry := range tree.Entries {
		if entry.Type != "blob" || !eligible(entry.Path, entry.Size) {
			continue
		}
		candidates = append(candidates, entry)
	}
	// The limit bounds fetches, not successes: a file that fails to
	// read still used up its slot.
	if len(candidates) > a.fileLimit {
		candidates = candidates[:a.fileLimit]
		snap.Truncated = true
	}

	for _, entry := range candidates {
		content, err := a.blob(ctx, owner, repo, entry.SHA)
		if err != nil {
			a.logger.Warn("skipping unreadable blob", "repo", owner+"/"+repo, "path", entry.Path, "error", err)
			continue
		}

		result := a.strategy.Analyze(entry.Path, content)
		snap.Files++
		snap.LOC += result.LOC
		snap.Functions += result.Functions
		contribution += result.Contribution
	}

	if snap.Functions > 0 {
		snap.AvgComplexity = round4(contribution / float64(snap.Functions))
	}
	return snap, nil
}

func (a *Analyzer) blob(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	if content, ok := a.blobs.Get(sha); ok {
		return content, nil
	}
	content, err := a.source.Blob(ctx, owner, repo, sha)
	if err != nil {
		return nil, err
	}
	a.blobs.Add(sha, content)
	return content, nil
}

func eligible(path string, size int) bool {
	if size > MaxBlobSize {
		return false
	}
	for _, seg := range skipSegments {
		if strings.Contains(path, seg) {
			return false
		}
	}
	for _, suffix := range sourceSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
