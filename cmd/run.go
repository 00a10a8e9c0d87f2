package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRunCmd creates the 'run' subcommand: a foreground scheduler that
// executes the pipeline at the configured interval until interrupted.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Runs the pipeline on a fixed interval",
		Long: `Keeps the process in the foreground, executes one pipeline pass right
away and then repeats every pipeline.interval_minutes. SIGINT or SIGTERM
stops the loop after the current pass finishes.`,
		RunE: runSchedulerCommand,
	}
}

func runSchedulerCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	interval := time.Duration(a.Cfg.Pipeline.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	a.Logger.Info("scheduler started", zap.Duration("interval", interval))

	return scheduleLoop(cmd.Context(), interval, a.Logger, func() error {
		return runPipelineOnce(cmd, a)
	})
}

// scheduleLoop runs fn once immediately, then on every interval tick
// until the context is cancelled. A failed pass is logged, not fatal.
func scheduleLoop(ctx context.Context, interval time.Duration, logger *zap.Logger, fn func() error) error {
	pass := func() {
		if err := fn(); err != nil {
			// One failed pass should not kill the scheduler.
			logger.Error("pipeline run failed", zap.Error(err))
		}
	}

	pass()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopping")
			return nil
		case <-ticker.C:
			pass()
		}
	}
}
