package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AndreHyodo/depmine/pkg/integrations/github"
	"github.com/AndreHyodo/depmine/pkg/integrations/osv"
	"github.com/AndreHyodo/depmine/pkg/metrics"
	"github.com/AndreHyodo/depmine/pkg/miner"
	"github.com/AndreHyodo/depmine/pkg/vuln"
)

// discoverCommand creates the "discover" command, which runs only the
// discovery and survey stages and prints the resulting targets.
func (c *CLI) discoverCommand() *cobra.Command {
	var (
		configPath string
		query      string
		limit      int
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List repositories that qualify for mining",
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

			ctx := cmd.Context()
			store := newCache(noCache)
			defer store.Close()

			gh := github.NewClient(cfg.Token, store)
			vulns := vuln.NewService(osv.NewClient(store), c.Logger)
			analyzer := metrics.NewAnalyzer(gh, metrics.Keyword{}, cfg.Mining.FileLimit, c.Logger)
			m := miner.New(gh, analyzer, vulns, minerConfig(cfg), c.Logger)

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
			spinner.StopWithSuccess(fmt.Sprintf("%d targets from %d repositories", len(targets), len(repos)))

			for _, t := range targets {
				printKeyValue(t.FullName(), fmt.Sprintf("%s deps, %s stars",
					strconv.Itoa(t.DependencyCount), strconv.Itoa(t.Stars)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVarP(&query, "query", "q", "", "repository search query")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum repositories to discover")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the HTTP response cache")

	return cmd
}
