package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobradar/internal/report"
)

// newReportCmd creates the 'report' subcommand: postings published in
// the last N days, minus anything the previous report already shipped.
func newReportCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Exports postings published in the last N days",
		Long: `Writes a JSON report of postings whose publish date falls within the
last N days, ordered by score then recency, skipping postings already
present in the most recent prior report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = a.Cfg.Report.Days
			}

			exporter := report.New(a.Store, a.Cfg.Report, a.Logger)
			res, err := exporter.Recent(cmd.Context(), days)
			if err != nil {
				return err
			}

			a.Logger.Info("report written",
				zap.String("path", res.Path),
				zap.Int("rows", res.Rows),
				zap.Int("deduped", res.Deduped),
				zap.String("against", res.Against))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "publish-date window in days")
	return cmd
}
