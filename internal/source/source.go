// Package source implements the ATS connectors. Each connector turns
// one collection target (a board token or career URL) into normalized
// postings, filtering as it goes so only relevant jobs leave the
// package.
package source

import (
	"context"
	"crypto/sha1"
	"encoding/hex"

	"go.uber.org/zap"

	"jobradar/internal/filter"
	"jobradar/internal/httpx"
	"jobradar/internal/radar"
)

// Deps carries the shared collaborators every connector needs.
type Deps struct {
	Client    *httpx.Client
	Robots    *httpx.RobotsGate
	Throttler *httpx.Throttler
	Filter    *filter.Engine
	Logger    *zap.Logger
}

// applyCrawlDelay merges the robots.txt crawl-delay of the host that
// rawURL actually hits into the throttler. Delegate connectors fetch
// ATS hosts that differ from the mapped career page, so the merge
// happens per fetched URL, not per target.
func (d Deps) applyCrawlDelay(ctx context.Context, rawURL string) {
	if d.Robots == nil || d.Throttler == nil {
		return
	}
	if delay := d.Robots.CrawlDelay(ctx, rawURL); delay > 0 {
		d.Throttler.RaiseHostInterval(hostOf(rawURL), delay)
	}
}

// All returns every connector, keyed by source name.
func All(d Deps) map[string]radar.Connector {
	connectors := []radar.Connector{
		NewGreenhouse(d),
		NewLever(d),
		NewSmartRecruiters(d),
		NewAshby(d),
		NewWorkday(d),
		NewICIMS(d),
		NewJobvite(d),
		NewBambooHR(d),
		NewWorkable(d),
		NewWebScrape(d),
	}
	out := make(map[string]radar.Connector, len(connectors))
	for _, c := range connectors {
		out[c.Source()] = c
	}
	return out
}

// stableID derives a short deterministic identifier for postings whose
// source exposes no requisition ID.
func stableID(seed string) string {
	sum := sha1.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:24]
}
