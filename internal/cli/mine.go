package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AndreHyodo/depmine/pkg/export"
	"github.com/AndreHyodo/depmine/pkg/integrations/github"
	"github.com/AndreHyodo/depmine/pkg/integrations/osv"
	"github.com/AndreHyodo/depmine/pkg/metrics"
	"github.com/AndreHyodo/depmine/pkg/miner"
	"github.com/AndreHyodo/depmine/pkg/vuln"
)

// vulnsFile is the persisted vulnerability table inside the data dir.
const vulnsFile = "vulns.json"

// mineCommand creates the "mine" command running the full pipeline.
func (c *CLI) mineCommand() *cobra.Command {
	var (
		configPath string
		query      string
		limit      int
		outDir     string
		strategy   string
		snapshots  bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine repositories for dependency removals",
		Long: `Mine runs the full pipeline: discover popular repositories, survey
their manifests, scan manifest-touching commits for dependency
removals, and export candidate records with before/after complexity
metrics and vulnerability counts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("query") {
				cfg.Query = query
			}
			if cmd.Flags().Changed("limit") {
				cfg.Limit = limit
			}
			if cmd.Flags().Changed("out") {
				cfg.OutputDir = outDir
			}
			if cmd.Flags().Changed("strategy") {
				cfg.Mining.Strategy = strategy
			}
			if cmd.Flags().Changed("snapshots") {
				cfg.Mining.Snapshots = snapshots
			}

			return c.runMine(cmd, cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVarP(&query, "query", "q", "", "repository search query")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum repositories to discover")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory for run files")
	cmd.Flags().StringVar(&strategy, "strategy", "", "complexity strategy: structural or keyword")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "attach parsed manifest snapshots to candidates")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the HTTP response cache")

	return cmd
}

func (c *CLI) runMine(cmd *cobra.Command, cfg Config, noCache bool) error {
	ctx := cmd.Context()
	store := newCache(noCache)
	defer store.Close()

	gh := github.NewClient(cfg.Token, store)
	vulns := vuln.NewService(osv.NewClient(store), c.Logger)
	vulnsPath := c.loadVulns(vulns)

	m := miner.New(gh, c.newAnalyzer(gh, cfg), vulns, minerConfig(cfg), c.Logger)

	if cfg.Token == "" {
		printWarning("no API token configured, unauthenticated rate limits apply")
	}

	started := time.Now()
	p := newProgress(c.Logger)

	repos, err := m.Discover(ctx, cfg.Query, cfg.Limit)
	if err != nil {
		return err
	}
	targets, err := m.Survey(ctx, repos)
	if err != nil {
		return err
	}
	candidates, err := m.Mine(ctx, targets)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Mined %d repositories, %d candidates", len(targets), len(candidates)))

	if vulnsPath != "" {
		if err := vulns.Save(vulnsPath); err != nil {
			c.Logger.Warn("failed to persist vulnerability table", "path", vulnsPath, "error", err)
		}
	}

	run := export.NewRun(cfg.Query, started, candidates)
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	jsonPath := filepath.Join(cfg.OutputDir, "run-"+run.ID+".json")
	csvPath := filepath.Join(cfg.OutputDir, "run-"+run.ID+".csv")
	if err := run.SaveJSON(jsonPath); err != nil {
		return fmt.Errorf("write run document: %w", err)
	}
	if err := run.SaveCSV(csvPath); err != nil {
		return fmt.Errorf("write run csv: %w", err)
	}

	printSuccess("Emitted %d candidate records", len(candidates))
	printFile(jsonPath)
	printFile(csvPath)
	return nil
}

// newAnalyzer selects the complexity strategy once per run.
func (c *CLI) newAnalyzer(gh *github.Client, cfg Config) *metrics.Analyzer {
	var strategy metrics.Strategy
	if cfg.Mining.Strategy == "keyword" {
		strategy = metrics.Keyword{}
	} else {
		strategy = metrics.NewStructural()
	}
	c.Logger.Debug("selected complexity strategy", "strategy", strategy.Name())
	return metrics.NewAnalyzer(gh, strategy, cfg.Mining.FileLimit, c.Logger)
}

// loadVulns loads the persisted vulnerability table and returns its
// path, or an empty string when no data directory is available.
func (c *CLI) loadVulns(vulns *vuln.Service) string {
	dir, err := dataDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, vulnsFile)
	if err := vulns.Load(path); err != nil {
		c.Logger.Warn("failed to load vulnerability table", "path", path, "error", err)
	}
	return path
}

func minerConfig(cfg Config) miner.Config {
	return miner.Config{
		DaysBack:         cfg.Mining.DaysBack,
		LimitCommits:     cfg.Mining.LimitCommits,
		MaxCandidates:    cfg.Mining.MaxCandidates,
		Workers:          cfg.Mining.Workers,
		IncludeSnapshots: cfg.Mining.Snapshots,
	}
}
