package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"jobradar/internal/radar"
)

const (
	workdayPageLimit = 20
	maxWorkdayPages  = 50
)

var workdayReqIDRe = regexp.MustCompile(`(?i)([A-Z]{1,4}-\d{3,}|\bR-\d{3,}\b|\bJR-?\d{3,}\b)`)

var workdayLocalePrefixRe = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)

// Workday drives the CXS search endpoint behind hosted career sites.
// The tenant and site names are not in the career URL verbatim, so the
// connector generates candidate endpoints and probes them in order.
type Workday struct {
	deps Deps
}

// NewWorkday builds the Workday connector.
func NewWorkday(d Deps) *Workday {
	return &Workday{deps: d}
}

// Source implements radar.Connector.
func (w *Workday) Source() string { return radar.SourceWorkday }

type workdaySearchRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type workdayJobPosting struct {
	Title         string `json:"title"`
	BulletTitle   string `json:"bulletTitle"`
	LocationsText string `json:"locationsText"`
	Location      string `json:"location"`
	ExternalPath  string `json:"externalPath"`
	ExternalURL   string `json:"externalUrl"`
	PostedOn      string `json:"postedOn"`
	PostedOnDate  string `json:"postedOnDate"`
}

type workdaySearchResponse struct {
	Total       *int                `json:"total"`
	JobPostings []workdayJobPosting `json:"jobPostings"`
}

// CandidateEndpoints derives /wday/cxs/{tenant}/{site}/jobs URLs from a
// hosted career URL. Site candidates come from the path segments, with
// common public site names as a fallback.
func (w *Workday) CandidateEndpoints(careerURL string) []string {
	parsed, err := url.Parse(careerURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(parsed.Host)
	if !strings.Contains(host, "myworkdayjobs.com") {
		return nil
	}
	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	parts := pathParts(careerURL)

	var tenants, sites []string
	if label := strings.SplitN(host, ".", 2)[0]; label != "" {
		tenants = append(tenants, label)
	}
	if len(parts) > 0 {
		sites = append(sites, parts[len(parts)-1])
		if len(parts) >= 2 && workdayLocalePrefixRe.MatchString(parts[0]) {
			sites = append(sites, parts[1])
		}
		sites = append(sites, parts[0])
	}
	for i, p := range parts {
		if p == "recruiting" && len(parts) > i+2 {
			tenants = append(tenants, parts[i+1])
			sites = append(sites, parts[i+2])
		}
	}

	tenants = dedupeStrings(tenants)
	sites = dedupeStrings(sites)

	var endpoints []string
	for _, tenant := range tenants {
		for _, site := range sites {
			endpoints = append(endpoints, fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", scheme, host, tenant, site))
		}
	}
	for _, tenant := range tenants {
		for _, site := range []string{"careers", "external", "externalsite", "jobsearch"} {
			endpoints = append(endpoints, fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", scheme, host, tenant, site))
		}
	}
	return dedupeStrings(endpoints)
}

// Fetch implements radar.Connector. The first endpoint that answers
// with job postings wins; its pages are drained and the rest are
// skipped.
func (w *Workday) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	parsed, err := url.Parse(target.URL)
	if err != nil || !strings.Contains(strings.ToLower(parsed.Host), "myworkdayjobs.com") {
		return nil, nil
	}
	base := fmt.Sprintf("%s://%s", schemeOr(parsed.Scheme, "https"), strings.ToLower(parsed.Host))

	for _, endpoint := range w.CandidateEndpoints(target.URL) {
		if !w.robotsAllowed(ctx, endpoint) {
			continue
		}
		out, matched := w.drainEndpoint(ctx, endpoint, base, target)
		if matched || len(out) > 0 {
			return out, nil
		}
	}
	return nil, nil
}

func (w *Workday) drainEndpoint(ctx context.Context, endpoint, base string, target radar.Target) ([]radar.Posting, bool) {
	var out []radar.Posting
	matched := false
	offset := 0

	for page := 0; page < maxWorkdayPages; page++ {
		payload := workdaySearchRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageLimit,
			Offset:        offset,
			SearchText:    "",
		}
		resp, err := w.deps.Client.PostJSON(ctx, endpoint, payload)
		if err != nil || resp.StatusCode != http.StatusOK {
			break
		}
		var result workdaySearchResponse
		if err := json.Unmarshal(resp.Body, &result); err != nil {
			break
		}
		if len(result.JobPostings) == 0 {
			break
		}
		matched = true

		for _, item := range result.JobPostings {
			title := strings.TrimSpace(item.Title)
			if title == "" {
				title = strings.TrimSpace(item.BulletTitle)
			}
			if title == "" {
				continue
			}
			location := strings.TrimSpace(item.LocationsText)
			if location == "" {
				location = strings.TrimSpace(item.Location)
			}
			externalPath := strings.TrimSpace(item.ExternalPath)
			if externalPath == "" {
				externalPath = strings.TrimSpace(item.ExternalURL)
			}
			jobURL := target.URL
			if externalPath != "" {
				jobURL = resolveURL(base+"/", externalPath)
			}
			if !w.deps.Filter.Passes(title, location) {
				continue
			}
			posted := parseTime(item.PostedOn)
			if posted == nil {
				posted = parseTime(item.PostedOnDate)
			}
			seed := externalPath
			if seed == "" {
				seed = jobURL
			}
			out = append(out, radar.Posting{
				Source:   radar.SourceWorkday,
				JobID:    workdayJobID(seed, title),
				Title:    title,
				Company:  target.Company,
				Location: location,
				URL:      jobURL,
				PostedAt: posted,
			})
		}

		if result.Total != nil && offset+workdayPageLimit >= *result.Total {
			break
		}
		if len(result.JobPostings) < workdayPageLimit {
			break
		}
		offset += workdayPageLimit
	}
	return out, matched
}

// workdayJobID prefers a requisition ID from the job path and falls
// back to a stable digest.
func workdayJobID(urlOrPath, title string) string {
	path := urlOrPath
	if u, err := url.Parse(urlOrPath); err == nil && u.Path != "" {
		path = u.Path
	}
	if m := workdayReqIDRe.FindString(path); m != "" {
		return strings.ToUpper(m)
	}
	return stableID(urlOrPath + "|" + title)
}

func (w *Workday) robotsAllowed(ctx context.Context, rawURL string) bool {
	if w.deps.Robots == nil {
		return true
	}
	return w.deps.Robots.Allowed(ctx, rawURL)
}

func schemeOr(scheme, fallback string) string {
	if scheme == "" {
		return fallback
	}
	return scheme
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
