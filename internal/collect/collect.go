// Package collect orchestrates one ingestion pass: fan the validated
// targets out over the connectors, filter what comes back, and merge it
// into the store.
package collect

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobradar/internal/catalog"
	"jobradar/internal/filter"
	"jobradar/internal/metrics"
	"jobradar/internal/radar"
)

// Options tunes one collection pass.
type Options struct {
	// Workers bounds concurrent target fetches.
	Workers int
	// DaysBack drops postings older than this many days; 0 keeps all.
	DaysBack int
	// RequirePostedAt drops postings with no publish date.
	RequirePostedAt bool
	// MaxPerSource caps how many postings one target may contribute;
	// 0 means unlimited.
	MaxPerSource int
}

// Summary reports what one pass did.
type Summary struct {
	Fetched        int
	Inserted       int
	Updated        int
	SkippedStale   int
	SkippedInvalid int
	ErrorsBySource map[string]int
}

// Collector runs ingestion passes.
type Collector struct {
	connectors map[string]radar.Connector
	store      radar.Store
	filter     *filter.Engine
	catalog    *catalog.Catalog
	logger     *zap.Logger
	now        func() time.Time
}

// New builds a Collector.
func New(connectors map[string]radar.Connector, store radar.Store, f *filter.Engine, cat *catalog.Catalog, logger *zap.Logger) *Collector {
	return &Collector{
		connectors: connectors,
		store:      store,
		filter:     f,
		catalog:    cat,
		logger:     logger,
		now:        time.Now,
	}
}

// Targets assembles the work list from the validated token lists and
// the career-URL mappings.
func (c *Collector) Targets() []radar.Target {
	var targets []radar.Target
	for _, source := range []string{
		radar.SourceGreenhouse,
		radar.SourceLever,
		radar.SourceSmartRecruiter,
		radar.SourceAshby,
	} {
		for _, token := range c.catalog.ValidTokens(source) {
			targets = append(targets, radar.Target{Source: source, Company: token, Token: token})
		}
	}
	companies, mappings := c.catalog.WebScrapeSources()
	for _, company := range companies {
		targets = append(targets, radar.Target{
			Source:  radar.SourceWebScrape,
			Company: company,
			URL:     mappings[company],
		})
	}
	return targets
}

// Run executes one pass over the given targets.
func (c *Collector) Run(ctx context.Context, targets []radar.Target, opts Options) (Summary, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	summary := Summary{ErrorsBySource: make(map[string]int)}

	var (
		mu       sync.Mutex
		gathered []radar.Posting
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, target := range targets {
		g.Go(func() error {
			conn, ok := c.connectors[target.Source]
			if !ok {
				c.logger.Warn("no connector for source", zap.String("source", target.Source))
				return nil
			}
			postings, err := conn.Fetch(gctx, target)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.ErrorsBySource[target.Source]++
				metrics.ObserveConnectorError(target.Source)
				// Only the first few failures per source are worth a log line.
				if summary.ErrorsBySource[target.Source] <= 5 {
					c.logger.Error("fetch failed",
						zap.String("source", target.Source),
						zap.String("company", target.Company),
						zap.Error(err))
				}
				return nil
			}
			gathered = append(gathered, c.keep(postings, opts)...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	summary.Fetched = len(gathered)
	for _, p := range gathered {
		switch {
		case p.Source == "" || p.JobID == "" || p.Title == "" || p.Company == "" || p.URL == "":
			summary.SkippedInvalid++
			continue
		case c.filter.Stale(p.PostedAt):
			summary.SkippedStale++
			continue
		}
		p.Score = filter.Score(p.Title, p.Location, p.Description)
		inserted, err := c.store.Upsert(ctx, p)
		if err != nil {
			return summary, err
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}
	}

	c.logger.Info("collection complete",
		zap.Int("fetched", summary.Fetched),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped_stale", summary.SkippedStale),
		zap.Int("skipped_invalid", summary.SkippedInvalid),
		zap.Any("errors", summary.ErrorsBySource))
	return summary, nil
}

// keep applies the cutoff and per-target cap to one fetch result.
func (c *Collector) keep(postings []radar.Posting, opts Options) []radar.Posting {
	var cutoff time.Time
	if opts.DaysBack > 0 {
		cutoff = c.now().AddDate(0, 0, -opts.DaysBack)
	}

	var kept []radar.Posting
	for _, p := range postings {
		if opts.RequirePostedAt && p.PostedAt == nil {
			continue
		}
		if !cutoff.IsZero() && p.PostedAt != nil && p.PostedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, p)
	}
	if opts.MaxPerSource > 0 && len(kept) > opts.MaxPerSource {
		kept = kept[:opts.MaxPerSource]
	}
	return kept
}
