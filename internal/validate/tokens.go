package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"jobradar/internal/filter"
	"jobradar/internal/httpx"
)

// tokenProbeLimit is how many postings each probe inspects for a
// filter match before giving up on a board.
const tokenProbeLimit = 50

// Tokens holds the per-ATS validation probes. Each probe answers two
// questions: does the board exist, and does it carry at least one
// posting the filters would keep.
type Tokens struct {
	client *httpx.Client
	filter *filter.Engine

	// endpoint roots, swappable in tests
	greenhouseBase string
	leverBase      string
	smartBase      string
	ashbyBase      string
}

// NewTokens builds the token probes.
func NewTokens(client *httpx.Client, f *filter.Engine) *Tokens {
	return &Tokens{
		client:         client,
		filter:         f,
		greenhouseBase: "https://boards-api.greenhouse.io/v1/boards",
		leverBase:      "https://api.lever.co/v0/postings",
		smartBase:      "https://api.smartrecruiters.com/v1/companies",
		ashbyBase:      "https://jobs.ashbyhq.com",
	}
}

func (t *Tokens) getJSON(ctx context.Context, url string, out any) (string, bool) {
	resp, err := t.client.Get(ctx, url)
	if err != nil {
		return "exception", false
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("http_%d", resp.StatusCode), false
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return "bad_json_shape", false
	}
	return "", true
}

// Greenhouse probes the public board API.
func (t *Tokens) Greenhouse(ctx context.Context, token string) (bool, string) {
	url := fmt.Sprintf("%s/%s/jobs", t.greenhouseBase, token)

	var raw map[string]json.RawMessage
	if reason, ok := t.getJSON(ctx, url, &raw); !ok {
		return false, reason
	}
	jobsRaw, present := raw["jobs"]
	if !present {
		return false, "bad_json_shape"
	}
	var jobs []struct {
		Title    string `json:"title"`
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
	}
	if err := json.Unmarshal(jobsRaw, &jobs); err != nil {
		return false, "bad_json_shape"
	}
	if len(jobs) == 0 {
		return false, "no_jobs"
	}
	for _, job := range cap50(jobs) {
		if t.filter.Passes(job.Title, job.Location.Name) {
			return true, "ok"
		}
	}
	return false, "no_matching_jobs"
}

// Lever probes the public postings API.
func (t *Tokens) Lever(ctx context.Context, token string) (bool, string) {
	url := fmt.Sprintf("%s/%s?mode=json", t.leverBase, token)

	var jobs []struct {
		Text       string `json:"text"`
		Title      string `json:"title"`
		Categories struct {
			Location string `json:"location"`
		} `json:"categories"`
	}
	if reason, ok := t.getJSON(ctx, url, &jobs); !ok {
		return false, reason
	}
	if len(jobs) == 0 {
		return false, "no_jobs"
	}
	for _, job := range cap50(jobs) {
		title := job.Text
		if title == "" {
			title = job.Title
		}
		if t.filter.Passes(title, job.Categories.Location) {
			return true, "ok"
		}
	}
	return false, "no_matching_jobs"
}

// SmartRecruiters probes the first postings page.
func (t *Tokens) SmartRecruiters(ctx context.Context, token string) (bool, string) {
	url := fmt.Sprintf("%s/%s/postings?limit=100&offset=0", t.smartBase, token)

	var raw map[string]json.RawMessage
	if reason, ok := t.getJSON(ctx, url, &raw); !ok {
		return false, reason
	}
	contentRaw, present := raw["content"]
	if !present {
		return false, "missing_content"
	}
	var content []struct {
		Name     string `json:"name"`
		Location struct {
			City    string `json:"city"`
			Region  string `json:"region"`
			Country string `json:"country"`
		} `json:"location"`
	}
	if err := json.Unmarshal(contentRaw, &content); err != nil {
		return false, "missing_content"
	}
	var total int
	if err := json.Unmarshal(raw["totalFound"], &total); err != nil {
		return false, "missing_totalFound"
	}
	if total <= 0 {
		return false, "no_postings"
	}
	for _, job := range content {
		location := joinNonEmpty(job.Location.City, job.Location.Region, job.Location.Country)
		if t.filter.Passes(job.Name, location) {
			return true, "ok"
		}
	}
	return false, "no_matching_jobs"
}

// Ashby probes the hosted board page, then its JSON endpoint.
func (t *Tokens) Ashby(ctx context.Context, token string) (bool, string) {
	pageURL := fmt.Sprintf("%s/%s", t.ashbyBase, token)
	resp, err := t.client.Get(ctx, pageURL)
	if err != nil {
		return false, "exception"
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Sprintf("http_%d", resp.StatusCode)
	}

	var board struct {
		Jobs *[]struct {
			Title        string `json:"title"`
			LocationName string `json:"locationName"`
		} `json:"jobs"`
	}
	if reason, ok := t.getJSON(ctx, pageURL+"/jobs", &board); !ok {
		return false, reason
	}
	if board.Jobs == nil {
		return false, "bad_json_shape"
	}
	if len(*board.Jobs) == 0 {
		return false, "no_jobs"
	}
	for _, job := range cap50(*board.Jobs) {
		if t.filter.Passes(job.Title, job.LocationName) {
			return true, "ok"
		}
	}
	return false, "no_matching_jobs"
}

func cap50[T any](in []T) []T {
	if len(in) > tokenProbeLimit {
		return in[:tokenProbeLimit]
	}
	return in
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
