package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobradar/internal/catalog"
	"jobradar/internal/radar"
	"jobradar/internal/validate"
)

// newDiscoverCmd creates the 'discover' subcommand. It hunts for a
// scrapeable career page for every company in the master list and
// writes the webscrape lists plus the career-URL mappings.
func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Discovers scrapeable career pages for master-list companies",
		Long: `Generates name variants and probes common career-page URL patterns
for every company in the master list. Pages that show job content, job
structured data or a known ATS embed become webscrape sources.`,
		RunE: runDiscoverCommand,
	}
}

func runDiscoverCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	companies, err := a.Catalog.MasterCompanies()
	if err != nil {
		return err
	}

	discovery := validate.NewDiscovery(a.ValidationClient(), a.Logger)
	results := make([]validate.DiscoverResult, len(companies))

	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.Cfg.Validate.Workers)
	for i, company := range companies {
		g.Go(func() error {
			results[i] = discovery.Company(gctx, company)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var (
		valid    []string
		invalid  []catalog.InvalidToken
		mappings []catalog.Mapping
	)
	for i, company := range companies {
		res := results[i]
		if res.OK {
			valid = append(valid, company)
			mappings = append(mappings, catalog.Mapping{Company: company, URL: res.CareerURL})
			continue
		}
		invalid = append(invalid, catalog.InvalidToken{Token: company, Reason: res.Reason})
	}

	if err := a.Catalog.SaveValidTokens(radar.SourceWebScrape, valid); err != nil {
		return fmt.Errorf("save webscrape valid list: %w", err)
	}
	if err := a.Catalog.SaveInvalidTokens(radar.SourceWebScrape, invalid); err != nil {
		return fmt.Errorf("save webscrape invalid list: %w", err)
	}
	if err := a.Catalog.SaveCareerURLMappings(mappings); err != nil {
		return fmt.Errorf("save career url mappings: %w", err)
	}

	a.Logger.Info("career page discovery saved",
		zap.Int("companies", len(companies)),
		zap.Int("valid", len(valid)),
		zap.Int("invalid", len(invalid)))
	return nil
}
