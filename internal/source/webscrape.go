package source

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"jobradar/internal/httpx"
	"jobradar/internal/radar"
)

// WebScrape covers companies with no usable board API. It first routes
// the career URL through the known-ATS dispatch table, then falls back
// to structured data on the page itself: JSON-LD JobPosting blocks,
// and as a last resort job-looking anchors.
type WebScrape struct {
	deps   Deps
	routes []atsRoute
}

// NewWebScrape builds the scraping connector.
func NewWebScrape(d Deps) *WebScrape {
	return &WebScrape{deps: d, routes: newATSRoutes(d)}
}

// Source implements radar.Connector.
func (c *WebScrape) Source() string { return radar.SourceWebScrape }

// Fetch implements radar.Connector.
func (c *WebScrape) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	if target.URL == "" {
		return nil, nil
	}
	if c.deps.Robots != nil {
		if !c.deps.Robots.Allowed(ctx, target.URL) {
			if c.deps.Logger != nil {
				c.deps.Logger.Debug("robots disallows career page",
					zap.String("company", target.Company),
					zap.String("url", target.URL))
			}
			return nil, nil
		}
		c.deps.applyCrawlDelay(ctx, target.URL)
	}

	postings, matched, err := dispatchKnownATS(ctx, c.routes, target.Company, target.URL)
	if matched {
		if err != nil {
			return nil, fmt.Errorf("webscrape %s: %w", target.Company, err)
		}
		if len(postings) > 0 {
			return dedupeBySourceAndID(postings), nil
		}
		// A recognized ATS with zero postings still gets the page pass.
	}

	resp, err := c.deps.Client.Get(ctx, target.URL)
	if err != nil {
		return nil, fmt.Errorf("webscrape %s: %w", target.Company, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webscrape %s: %w", target.Company, &httpx.StatusError{URL: target.URL, Code: resp.StatusCode})
	}

	out := extractJSONLDPostings(target.Company, target.URL, resp.Body, c.deps.Filter)
	if len(out) == 0 {
		out = c.extractAnchorPostings(target, resp.Body)
	}
	return dedupeByID(out), nil
}

// extractAnchorPostings is the last-resort pass: anchors whose text
// reads like a job title and whose URL carries a job-path hint.
func (c *WebScrape) extractAnchorPostings(target radar.Target, body []byte) []radar.Posting {
	var out []radar.Posting
	for _, a := range extractAnchors(body) {
		absURL := resolveURL(target.URL, a.href)
		if absURL == "" || !looksLikeJobURL(absURL) {
			continue
		}
		if !usableLinkTitle(a.text) || !c.deps.Filter.Passes(a.text, "") {
			continue
		}
		out = append(out, radar.Posting{
			Source:  radar.SourceWebScrape,
			JobID:   stableID(fmt.Sprintf("%s|%s|%s", target.Company, absURL, a.text)),
			Title:   a.text,
			Company: target.Company,
			URL:     absURL,
		})
	}
	return out
}

// dedupeByID keeps the last posting per job ID, preserving the order
// of first appearance.
func dedupeByID(postings []radar.Posting) []radar.Posting {
	index := make(map[string]int, len(postings))
	out := postings[:0:0]
	for _, p := range postings {
		if i, ok := index[p.JobID]; ok {
			out[i] = p
			continue
		}
		index[p.JobID] = len(out)
		out = append(out, p)
	}
	return out
}

// dedupeBySourceAndID is the ATS-path variant: delegates can emit the
// same requisition twice under one source.
func dedupeBySourceAndID(postings []radar.Posting) []radar.Posting {
	index := make(map[string]int, len(postings))
	out := postings[:0:0]
	for _, p := range postings {
		key := p.Source + ":" + p.JobID
		if i, ok := index[key]; ok {
			out[i] = p
			continue
		}
		index[key] = len(out)
		out = append(out, p)
	}
	return out
}
