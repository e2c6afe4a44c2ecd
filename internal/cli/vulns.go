package cli

import (
	"github.com/spf13/cobra"

	"github.com/AndreHyodo/depmine/pkg/integrations/osv"
	"github.com/AndreHyodo/depmine/pkg/vuln"
)

// vulnsCommand creates the "vulns" command for ad-hoc package lookups.
func (c *CLI) vulnsCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "vulns <package>",
		Short: "Look up known advisories for an npm package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			store := newCache(noCache)
			defer store.Close()

			vulns := vuln.NewService(osv.NewClient(store), c.Logger)
			rec := vulns.Lookup(cmd.Context(), name)

			if rec.Count == 0 {
				printInfo("No known advisories for %s", name)
				return nil
			}
			printWarning("%d known advisories for %s", rec.Count, name)
			for _, id := range rec.IDs {
				printDetail("%s", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the HTTP response cache")
	return cmd
}
