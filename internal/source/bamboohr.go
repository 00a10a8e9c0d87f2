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

var bambooJobIDRe = regexp.MustCompile(`/careers/([^/?#]+)`)

// BambooHR scrapes the hosted careers pages under
// {company}.bamboohr.com.
type BambooHR struct {
	deps Deps
}

// NewBambooHR builds the BambooHR connector.
func NewBambooHR(d Deps) *BambooHR {
	return &BambooHR{deps: d}
}

// Source implements radar.Connector.
func (c *BambooHR) Source() string { return radar.SourceBambooHR }

// Fetch implements radar.Connector.
func (c *BambooHR) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	host := bambooHost(target.URL)
	if host == "" {
		return nil, nil
	}
	base := "https://" + host

	candidates := dedupeStrings([]string{
		target.URL,
		base + "/careers",
		base + "/careers/list",
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
			if !strings.Contains(path, "/careers/") {
				continue
			}
			if !usableLinkTitle(a.text) || !c.deps.Filter.Passes(a.text, "") {
				continue
			}
			jobID := ""
			if m := bambooJobIDRe.FindStringSubmatch(path); m != nil {
				jobID = m[1]
			} else {
				jobID = stableID(fmt.Sprintf("%s|bamboohr|%s|%s", target.Company, absURL, a.text))
			}
			deduped[jobID] = radar.Posting{
				Source:  radar.SourceBambooHR,
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

func bambooHost(careerURL string) string {
	u, err := url.Parse(careerURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if !strings.Contains(host, "bamboohr.com") {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return host
}
