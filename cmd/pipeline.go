package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobradar/internal/app"
	"jobradar/internal/collect"
	"jobradar/internal/report"
	"jobradar/internal/state"
)

// pipelineMaxPerSource caps each target's contribution when the config
// leaves collect.max_per_source unset. Scheduled runs favor breadth
// over depth.
const pipelineMaxPerSource = 200

// newPipelineCmd creates the 'pipeline' subcommand: the one-shot
// ingest-and-publish step meant for scheduled execution.
func newPipelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Runs one scheduled ingest-and-publish pass",
		Long: `Collects recently posted jobs and refreshes the JSON feed, the
paginated Markdown pages and the README block. The first ever run looks
back further than the daily runs; a state file tracks which applies.`,
		RunE: runPipelineCommand,
	}
}

func runPipelineCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	return runPipelineOnce(cmd, a)
}

// runPipelineOnce is shared with the 'run' scheduler loop.
func runPipelineOnce(cmd *cobra.Command, a *app.App) error {
	marker := state.NewFile(a.Cfg.Pipeline.StatePath, a.Logger)
	st := marker.Read()

	daysBack := a.Cfg.Pipeline.FirstRunDays
	if st.Initialized {
		daysBack = a.Cfg.Pipeline.DailyDays
	}

	maxPerSource := a.Cfg.Collect.MaxPerSource
	if maxPerSource <= 0 {
		maxPerSource = pipelineMaxPerSource
	}

	runID := state.NewRunID()
	a.Logger.Info("pipeline run starting",
		zap.String("run_id", runID),
		zap.Bool("initialized", st.Initialized),
		zap.Int("days_back", daysBack))

	c := collect.New(a.Connectors, a.Store, a.Filter, a.Catalog, a.Logger)
	if _, err := c.Run(cmd.Context(), c.Targets(), collect.Options{
		Workers:         a.Cfg.Collect.Workers,
		DaysBack:        daysBack,
		RequirePostedAt: true,
		MaxPerSource:    maxPerSource,
	}); err != nil {
		return err
	}

	exporter := report.New(a.Store, a.Cfg.Report, a.Logger)
	if _, err := exporter.ExportJSON(cmd.Context()); err != nil {
		return err
	}
	if err := exporter.ExportFeed(cmd.Context()); err != nil {
		return err
	}

	st.Initialized = true
	st.LastRunAt = time.Now().UTC().Format(time.RFC3339)
	st.LastRunID = runID
	st.DaysBackUsed = daysBack
	return marker.Write(st)
}
