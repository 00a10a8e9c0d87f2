package source

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"jobradar/internal/radar"
)

// Jobvite tries the public search API and falls back to the RSS feed
// when the API answers with nothing usable.
type Jobvite struct {
	deps Deps
}

// NewJobvite builds the Jobvite connector.
func NewJobvite(d Deps) *Jobvite {
	return &Jobvite{deps: d}
}

// Source implements radar.Connector.
func (c *Jobvite) Source() string { return radar.SourceJobvite }

type jobviteJob struct {
	ID           any    `json:"id"`
	JobID        any    `json:"jobId"`
	ReqID        any    `json:"reqId"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	LocationName string `json:"locationName"`
	URL          string `json:"url"`
	JobURL       string `json:"jobUrl"`
	ApplyURL     string `json:"applyUrl"`
	PostedDate   string `json:"postedDate"`
	CreatedDate  string `json:"createdDate"`
	Date         string `json:"date"`
}

type jobviteSearchResponse struct {
	Jobs         []jobviteJob `json:"jobs"`
	Requisitions []jobviteJob `json:"requisitions"`
	Results      []jobviteJob `json:"results"`
}

func (r jobviteSearchResponse) items() []jobviteJob {
	if len(r.Jobs) > 0 {
		return r.Jobs
	}
	if len(r.Requisitions) > 0 {
		return r.Requisitions
	}
	return r.Results
}

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title    string `xml:"title"`
	Link     string `xml:"link"`
	PubDate  string `xml:"pubDate"`
	Location string `xml:"location"`
}

// Fetch implements radar.Connector.
func (c *Jobvite) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	slug := jobviteSlug(target.URL)
	if slug == "" {
		return nil, nil
	}

	endpoints := []string{
		fmt.Sprintf("https://jobs.jobvite.com/api/job/v1/search?company=%s", slug),
		fmt.Sprintf("https://jobs.jobvite.com/api/job/v1/search?company=%s&count=500", slug),
	}
	for _, endpoint := range endpoints {
		if c.deps.Robots != nil && !c.deps.Robots.Allowed(ctx, endpoint) {
			continue
		}
		// The search API lives on jobs.jobvite.com, not the mapped
		// career page, so its crawl-delay has to be merged here.
		c.deps.applyCrawlDelay(ctx, endpoint)
		resp, err := c.deps.Client.Get(ctx, endpoint)
		if err != nil || resp.StatusCode != http.StatusOK {
			continue
		}
		if out := c.parseAPIJobs(resp.Body, target); len(out) > 0 {
			return out, nil
		}
	}

	return c.fetchRSS(ctx, slug, target)
}

func (c *Jobvite) parseAPIJobs(body []byte, target radar.Target) []radar.Posting {
	var result jobviteSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		// Some tenants answer with a bare array.
		var list []jobviteJob
		if err := json.Unmarshal(body, &list); err != nil {
			return nil
		}
		result.Jobs = list
	}

	var out []radar.Posting
	for _, item := range result.items() {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = strings.TrimSpace(item.Name)
		}
		if title == "" {
			continue
		}
		location := strings.TrimSpace(item.Location)
		if location == "" {
			location = strings.TrimSpace(item.LocationName)
		}
		jobURL := firstNonEmpty(item.URL, item.JobURL, item.ApplyURL)
		if jobURL == "" {
			continue
		}
		reqID := firstNonEmpty(jsonIDString(item.ID), jsonIDString(item.JobID), jsonIDString(item.ReqID))
		if reqID == "" {
			reqID = stableID(fmt.Sprintf("%s|jobvite|%s|%s", target.Company, jobURL, title))
		}
		if !c.deps.Filter.Passes(title, location) {
			continue
		}
		posted := parseTime(item.PostedDate)
		if posted == nil {
			posted = parseTime(item.CreatedDate)
		}
		if posted == nil {
			posted = parseTime(item.Date)
		}
		out = append(out, radar.Posting{
			Source:   radar.SourceJobvite,
			JobID:    reqID,
			Title:    title,
			Company:  target.Company,
			Location: location,
			URL:      jobURL,
			PostedAt: posted,
		})
	}
	return out
}

func (c *Jobvite) fetchRSS(ctx context.Context, slug string, target radar.Target) ([]radar.Posting, error) {
	rssURL := fmt.Sprintf("https://jobs.jobvite.com/%s/jobs/rss", slug)
	if c.deps.Robots != nil && !c.deps.Robots.Allowed(ctx, rssURL) {
		return nil, nil
	}
	c.deps.applyCrawlDelay(ctx, rssURL)
	resp, err := c.deps.Client.Get(ctx, rssURL)
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var feed rssFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, nil
	}

	var out []radar.Posting
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		jobURL := strings.TrimSpace(item.Link)
		if title == "" || jobURL == "" {
			continue
		}
		location := strings.TrimSpace(item.Location)
		if !c.deps.Filter.Passes(title, location) {
			continue
		}
		out = append(out, radar.Posting{
			Source:   radar.SourceJobvite,
			JobID:    stableID(fmt.Sprintf("%s|jobvite|%s|%s", target.Company, jobURL, title)),
			Title:    title,
			Company:  target.Company,
			Location: location,
			URL:      jobURL,
			PostedAt: parseTime(item.PubDate),
		})
	}
	return out, nil
}

func jobviteSlug(careerURL string) string {
	host := hostOf(careerURL)
	if !strings.Contains(host, "jobvite.com") {
		return ""
	}
	parts := pathParts(careerURL)
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
