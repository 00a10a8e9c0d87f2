package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"jobradar/internal/radar"
)

var icimsJobIDRe = regexp.MustCompile(`/jobs/(\d+)`)

// ICIMS scrapes job links out of hosted search pages; the platform has
// no public JSON listing API.
type ICIMS struct {
	deps Deps
}

// NewICIMS builds the iCIMS connector.
func NewICIMS(d Deps) *ICIMS {
	return &ICIMS{deps: d}
}

// Source implements radar.Connector.
func (c *ICIMS) Source() string { return radar.SourceICIMS }

// Fetch implements radar.Connector. It walks the configured career URL
// plus the standard search paths and keeps the first title-bearing link
// per job ID.
func (c *ICIMS) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	base := icimsBase(target.URL)
	if base == "" {
		return nil, nil
	}

	candidates := dedupeStrings([]string{
		target.URL,
		base + "/jobs/search?ss=1",
		base + "/jobs/search",
	})

	deduped := make(map[string]radar.Posting)
	for _, candidate := range candidates {
		if c.deps.Robots != nil && !c.deps.Robots.Allowed(ctx, candidate) {
			continue
		}
		resp, err := c.deps.Client.Get(ctx, candidate)
		if err != nil || resp.StatusCode != http.StatusOK {
			continue
		}
		for _, a := range extractAnchors(resp.Body) {
			absURL := resolveURL(base, a.href)
			if absURL == "" {
				continue
			}
			path := strings.ToLower(urlPath(absURL))
			if !strings.Contains(path, "/jobs/") {
				continue
			}
			if !usableLinkTitle(a.text) || !c.deps.Filter.Passes(a.text, "") {
				continue
			}
			jobID := ""
			if m := icimsJobIDRe.FindStringSubmatch(path); m != nil {
				jobID = m[1]
			} else {
				jobID = stableID(fmt.Sprintf("%s|icims|%s|%s", target.Company, absURL, a.text))
			}
			deduped[jobID] = radar.Posting{
				Source:  radar.SourceICIMS,
				JobID:   jobID,
				Title:   a.text,
				Company: target.Company,
				URL:     absURL,
			}
		}
	}

	out := make([]radar.Posting, 0, len(deduped))
	for _, p := range deduped {
		out = append(out, p)
	}
	return out, nil
}

func icimsBase(careerURL string) string {
	u, err := url.Parse(careerURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if !strings.Contains(host, "icims.com") {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return fmt.Sprintf("%s://%s", u.Scheme, host)
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}
