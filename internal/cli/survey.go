package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AndreHyodo/depmine/pkg/export"
	"github.com/AndreHyodo/depmine/pkg/integrations/github"
	"github.com/AndreHyodo/depmine/pkg/integrations/osv"
	"github.com/AndreHyodo/depmine/pkg/metrics"
	"github.com/AndreHyodo/depmine/pkg/miner"
	"github.com/AndreHyodo/depmine/pkg/vuln"
)

// surveyCommand creates the "survey" command, which discovers
// repositories, collects their dependency manifests, and resolves
// advisories for every dependency without scanning commit history.
func (c *CLI) surveyCommand() *cobra.Command {
	var (
		configPath string
		query      string
		limit      int
		outDir     string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Summarize dependencies and advisories per repository",
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

			ctx := cmd.Context()
			store := newCache(noCache)
			defer store.Close()

			gh := github.NewClient(cfg.Token, store)
			vulns := vuln.NewService(osv.NewClient(store), c.Logger)
			vulnsPath := c.loadVulns(vulns)
			analyzer := metrics.NewAnalyzer(gh, metrics.Keyword{}, cfg.Mining.FileLimit, c.Logger)
			m := miner.New(gh, analyzer, vulns, minerConfig(cfg), c.Logger)

			if cfg.Token == "" {
				printWarning("no API token configured, unauthenticated rate limits apply")
			}

			spinner := newSpinner(ctx, "surveying repositories")
			spinner.Start()
			repos, err := m.Discover(ctx, cfg.Query, cfg.Limit)
			if err != nil {
				spinner.StopWithError("discovery failed")
				return err
			}
			targets, err := m.Survey(ctx, repos)
			if err != nil {
				spinner.StopWithError("survey failed")
				return err
			}
			audited := m.Audit(ctx, targets)
			spinner.StopWithSuccess(fmt.Sprintf("%d targets from %d repositories", len(audited), len(repos)))

			if vulnsPath != "" {
				if err := vulns.Save(vulnsPath); err != nil {
					c.Logger.Warn("failed to persist vulnerability table", "path", vulnsPath, "error", err)
				}
			}

			doc := export.NewSurvey(cfg.Query, audited)
			if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(cfg.OutputDir, "survey-"+doc.ID+".json")
			if err := doc.SaveJSON(path); err != nil {
				return fmt.Errorf("write survey document: %w", err)
			}

			printSuccess("Surveyed %d targets", len(audited))
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVarP(&query, "query", "q", "", "repository search query")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum repositories to discover")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory for the survey document")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the HTTP response cache")

	return cmd
}
