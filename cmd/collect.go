package cmd

import (
	"github.com/spf13/cobra"

	"jobradar/internal/collect"
)

// newCollectCmd creates the 'collect' subcommand: one ingestion pass
// over every validated target.
func newCollectCmd() *cobra.Command {
	var (
		daysBack        int
		requirePostedAt bool
		maxPerSource    int
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collects postings from all validated sources",
		Long: `Fetches postings from every validated board token and mapped career
page, filters them, and merges them into the store. Flags override the
configured defaults for one run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			opts := collect.Options{
				Workers:         a.Cfg.Collect.Workers,
				DaysBack:        a.Cfg.Collect.DaysBack,
				RequirePostedAt: a.Cfg.Collect.RequirePostedAt,
				MaxPerSource:    a.Cfg.Collect.MaxPerSource,
			}
			if cmd.Flags().Changed("days-back") {
				opts.DaysBack = daysBack
			}
			if cmd.Flags().Changed("require-posted-at") {
				opts.RequirePostedAt = requirePostedAt
			}
			if cmd.Flags().Changed("max-per-source") {
				opts.MaxPerSource = maxPerSource
			}

			c := collect.New(a.Connectors, a.Store, a.Filter, a.Catalog, a.Logger)
			_, err = c.Run(cmd.Context(), c.Targets(), opts)
			return err
		},
	}

	cmd.Flags().IntVar(&daysBack, "days-back", 0, "drop postings older than this many days (0 keeps all)")
	cmd.Flags().BoolVar(&requirePostedAt, "require-posted-at", false, "drop postings with no publish date")
	cmd.Flags().IntVar(&maxPerSource, "max-per-source", 0, "cap postings per target (0 means unlimited)")
	return cmd
}
