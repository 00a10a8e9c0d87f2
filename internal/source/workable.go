package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"jobradar/internal/radar"
)

// Workable reads the widget API under apply.workable.com, falling back
// to scraping /j/ links from the public page.
type Workable struct {
	deps Deps
}

// NewWorkable builds the Workable connector.
func NewWorkable(d Deps) *Workable {
	return &Workable{deps: d}
}

// Source implements radar.Connector.
func (c *Workable) Source() string { return radar.SourceWorkable }

type workableLocation struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type workableJob struct {
	ID        any             `json:"id"`
	Title     string          `json:"title"`
	Name      string          `json:"name"`
	Shortcode string          `json:"shortcode"`
	Code      string          `json:"code"`
	URL       string          `json:"url"`
	Location  json.RawMessage `json:"location"`
	Published string          `json:"published"`
	CreatedAt string          `json:"created_at"`
}

type workableWidget struct {
	Jobs    []workableJob `json:"jobs"`
	Results []workableJob `json:"results"`
}

func (w workableWidget) items() []workableJob {
	if len(w.Jobs) > 0 {
		return w.Jobs
	}
	return w.Results
}

// location handles both the object and plain-string forms the widget
// API emits.
func (j workableJob) location() string {
	if len(j.Location) == 0 {
		return ""
	}
	var obj workableLocation
	if err := json.Unmarshal(j.Location, &obj); err == nil {
		var parts []string
		for _, p := range []string{obj.City, obj.Country} {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}
	var s string
	if err := json.Unmarshal(j.Location, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// Fetch implements radar.Connector.
func (c *Workable) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	account := workableAccount(target.URL)
	if account == "" {
		return nil, nil
	}

	endpoints := []string{
		fmt.Sprintf("https://apply.workable.com/api/v1/widget/accounts/%s?details=true", account),
		fmt.Sprintf("https://apply.workable.com/api/v1/widget/accounts/%s", account),
	}
	for _, endpoint := range endpoints {
		if c.deps.Robots != nil && !c.deps.Robots.Allowed(ctx, endpoint) {
			continue
		}
		// The widget host differs from the mapped career page, so its
		// crawl-delay has to be merged here.
		c.deps.applyCrawlDelay(ctx, endpoint)
		var widget workableWidget
		if err := c.deps.Client.GetJSON(ctx, endpoint, &widget); err != nil {
			continue
		}
		if out := c.parseWidgetJobs(widget, account, target); len(out) > 0 {
			return out, nil
		}
	}

	return c.scrapeFallback(ctx, target)
}

func (c *Workable) parseWidgetJobs(widget workableWidget, account string, target radar.Target) []radar.Posting {
	var out []radar.Posting
	for _, item := range widget.items() {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = strings.TrimSpace(item.Name)
		}
		if title == "" {
			continue
		}
		location := item.location()
		shortcode := firstNonEmpty(item.Shortcode, item.Code, jsonIDString(item.ID))
		jobURL := strings.TrimSpace(item.URL)
		if jobURL == "" {
			if shortcode != "" {
				jobURL = fmt.Sprintf("https://apply.workable.com/%s/j/%s/", account, shortcode)
			} else {
				jobURL = target.URL
			}
		}
		jobID := shortcode
		if jobID == "" {
			jobID = stableID(fmt.Sprintf("%s|workable|%s|%s", target.Company, jobURL, title))
		}
		if !c.deps.Filter.Passes(title, location) {
			continue
		}
		posted := parseTime(item.Published)
		if posted == nil {
			posted = parseTime(item.CreatedAt)
		}
		out = append(out, radar.Posting{
			Source:   radar.SourceWorkable,
			JobID:    jobID,
			Title:    title,
			Company:  target.Company,
			Location: location,
			URL:      jobURL,
			PostedAt: posted,
		})
	}
	return out
}

func (c *Workable) scrapeFallback(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	if c.deps.Robots != nil && !c.deps.Robots.Allowed(ctx, target.URL) {
		return nil, nil
	}
	c.deps.applyCrawlDelay(ctx, target.URL)
	resp, err := c.deps.Client.Get(ctx, target.URL)
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var out []radar.Posting
	for _, a := range extractAnchors(resp.Body) {
		absURL := resolveURL(target.URL, a.href)
		if absURL == "" || !strings.Contains(strings.ToLower(urlPath(absURL)), "/j/") {
			continue
		}
		if len(a.text) < 6 || !c.deps.Filter.Passes(a.text, "") {
			continue
		}
		out = append(out, radar.Posting{
			Source:  radar.SourceWorkable,
			JobID:   stableID(fmt.Sprintf("%s|workable|%s|%s", target.Company, absURL, a.text)),
			Title:   a.text,
			Company: target.Company,
			URL:     absURL,
		})
	}
	return out, nil
}

func workableAccount(careerURL string) string {
	host := hostOf(careerURL)
	parts := pathParts(careerURL)
	if host == "apply.workable.com" && len(parts) > 0 {
		return parts[0]
	}
	if strings.HasSuffix(host, ".workable.com") {
		label := strings.SplitN(host, ".", 2)[0]
		if label != "" {
			return label
		}
		if len(parts) > 0 {
			return parts[0]
		}
	}
	return ""
}
