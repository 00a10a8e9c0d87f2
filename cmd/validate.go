package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobradar/internal/radar"
	"jobradar/internal/validate"
)

// newValidateCmd creates the 'validate' subcommand. It probes every
// company in the master list against each token-based ATS API and
// writes the per-source valid/invalid lists.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validates master-list companies as ATS board tokens",
		Long: `Probes every company in the master list against the Greenhouse,
Lever, SmartRecruiters and Ashby APIs and records which tokens expose a
usable board. Collection only fetches from validated tokens.`,
		RunE: runValidateCommand,
	}
}

func runValidateCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	companies, err := a.Catalog.MasterCompanies()
	if err != nil {
		return err
	}

	tokens := validate.NewTokens(a.ValidationClient(), a.Filter)
	runner := validate.NewRunner(a.Cfg.Validate.Workers, a.Cfg.Validate.RequestsPerSec, a.Logger)

	probes := []struct {
		source string
		fn     validate.TokenFunc
	}{
		{radar.SourceGreenhouse, tokens.Greenhouse},
		{radar.SourceLever, tokens.Lever},
		{radar.SourceSmartRecruiter, tokens.SmartRecruiters},
		{radar.SourceAshby, tokens.Ashby},
	}

	for _, probe := range probes {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		valid, invalid := runner.Run(cmd.Context(), probe.source, companies, probe.fn)
		if err := a.Catalog.SaveValidTokens(probe.source, valid); err != nil {
			return fmt.Errorf("save %s valid list: %w", probe.source, err)
		}
		if err := a.Catalog.SaveInvalidTokens(probe.source, invalid); err != nil {
			return fmt.Errorf("save %s invalid list: %w", probe.source, err)
		}
		a.Logger.Info("token validation saved",
			zap.String("source", probe.source),
			zap.Int("valid", len(valid)),
			zap.Int("invalid", len(invalid)))
	}
	return nil
}
