package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobradar/internal/httpx"
)

const (
	// maxHTMLAnalysisBytes caps how much of a page feeds the heuristic
	// checks; huge pages past this point add noise, not signal.
	maxHTMLAnalysisBytes = 2 << 20
	maxJSONBlockBytes    = 1 << 20
	maxNameVariants      = 5
)

var allowedContentTypes = []string{"text/html", "text/plain", "application/xhtml+xml"}

// atsMarkers flag career pages backed by a hosted ATS even when the
// rendered HTML carries no listings (JS-heavy boards).
var atsMarkers = []string{
	"greenhouse.io",
	"lever.co",
	"ashbyhq.com",
	"smartrecruiters.com",
	"myworkdayjobs.com",
	"icims.com",
	"jobvite.com",
	"bamboohr.com",
	"workable.com",
	"/wday/cxs/",
	"workday",
}

var careerKeywords = []string{"job", "career", "position", "opening", "opportunity", "hiring", "apply"}

var (
	safeNameRe    = regexp.MustCompile(`^[a-zA-Z0-9\-]+$`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9]`)
	nameSplitRe   = regexp.MustCompile(`[^a-z0-9]+`)
	ldJSONBlockRe = regexp.MustCompile(`(?is)<script[^>]*type=["']application/ld\+json["'][^>]*>(.*?)</script>`)
)

// Discovery locates and vets career pages for companies that have no
// known ATS token.
type Discovery struct {
	client *httpx.Client
	logger *zap.Logger
}

// NewDiscovery builds a Discovery.
func NewDiscovery(client *httpx.Client, logger *zap.Logger) *Discovery {
	return &Discovery{client: client, logger: logger}
}

// DiscoverResult is the outcome of vetting one company.
type DiscoverResult struct {
	OK        bool
	Reason    string
	CareerURL string
}

// Company finds and vets a career page for one company name. Reason is
// one of ok_jsonld, ok_html, ok_ats on success; on failure it names
// what went wrong (invalid_company_name, no_career_page, no_jobs,
// http_NNN, or a transport reason).
func (d *Discovery) Company(ctx context.Context, company string) DiscoverResult {
	variants := nameVariants(company)
	if len(variants) == 0 {
		return DiscoverResult{Reason: "invalid_company_name"}
	}

	careerURL := d.findCareerPage(ctx, variants)
	if careerURL == "" {
		return DiscoverResult{Reason: "no_career_page"}
	}

	body, reason := d.safeGet(ctx, careerURL)
	if reason != "" {
		return DiscoverResult{Reason: reason, CareerURL: careerURL}
	}

	html := capBytes(body, maxHTMLAnalysisBytes)
	switch {
	case hasJSONLDJobs(html):
		return DiscoverResult{OK: true, Reason: "ok_jsonld", CareerURL: careerURL}
	case hasJobListingsHTML(html):
		return DiscoverResult{OK: true, Reason: "ok_html", CareerURL: careerURL}
	case hasATSMarkers(html, careerURL):
		return DiscoverResult{OK: true, Reason: "ok_ats", CareerURL: careerURL}
	default:
		return DiscoverResult{Reason: "no_jobs", CareerURL: careerURL}
	}
}

func (d *Discovery) findCareerPage(ctx context.Context, variants []string) string {
	var patterns []string
	for _, v := range variants {
		patterns = append(patterns, urlPatterns(v)...)
	}
	seen := make(map[string]struct{}, len(patterns))
	for _, candidate := range patterns {
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}

		body, reason := d.safeGet(ctx, candidate)
		if reason != "" {
			continue
		}
		if isCareerPage(capBytes(body, maxHTMLAnalysisBytes), candidate) {
			d.logger.Debug("career page found", zap.String("url", candidate))
			return candidate
		}
	}
	return ""
}

// safeGet fetches a page and returns its body, or a reason code on any
// failure. The SSRF gateway runs inside the client.
func (d *Discovery) safeGet(ctx context.Context, rawURL string) ([]byte, string) {
	resp, err := d.client.Get(ctx, rawURL)
	if err != nil {
		return nil, transportReason(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Sprintf("http_%d", resp.StatusCode)
	}
	if len(resp.Body) > httpx.MaxResponseBytes {
		return nil, "response_too_large"
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	allowed := false
	for _, ct := range allowedContentTypes {
		if strings.Contains(contentType, ct) {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, "invalid_content_type"
	}
	return resp.Body, ""
}

func transportReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return "timeout"
	}
	return "connection_error"
}

// nameVariants turns a display name into URL-safe slugs: the compact
// form, hyphenated and joined word forms, and the first word alone.
func nameVariants(name string) []string {
	base := strings.ToLower(strings.TrimSpace(name))
	if base == "" {
		return nil
	}

	var candidates []string
	if compact := nonAlnumRe.ReplaceAllString(base, ""); compact != "" {
		candidates = append(candidates, compact)
	}
	var words []string
	for _, w := range nameSplitRe.Split(base, -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) > 0 {
		candidates = append(candidates, strings.Join(words, "-"), strings.Join(words, ""))
		if len(words) > 1 {
			candidates = append(candidates, words[0])
		}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, c := range candidates {
		if !safeNameRe.MatchString(c) {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) == maxNameVariants {
			break
		}
	}
	return out
}

// urlPatterns lists the career-page locations worth probing for a slug,
// common self-hosted paths first, then the hosted ATS boards.
func urlPatterns(slug string) []string {
	return []string{
		fmt.Sprintf("https://jobs.%s.com", slug),
		fmt.Sprintf("https://careers.%s.com", slug),
		fmt.Sprintf("https://www.%s.com/careers", slug),
		fmt.Sprintf("https://%s.com/careers", slug),
		fmt.Sprintf("https://www.%s.com/jobs", slug),
		fmt.Sprintf("https://%s.com/jobs", slug),
		fmt.Sprintf("https://%s.com/careers/jobs", slug),
		fmt.Sprintf("https://www.%s.com/company/careers", slug),
		fmt.Sprintf("https://%s.com/careers/", slug),
		fmt.Sprintf("https://careers.%s.io", slug),
		fmt.Sprintf("https://%s.io/careers", slug),
		fmt.Sprintf("https://%s.co/careers", slug),
		fmt.Sprintf("https://www.%s.co/careers", slug),
		fmt.Sprintf("https://%s.ai/careers", slug),
		fmt.Sprintf("https://www.%s.ai/careers", slug),
		fmt.Sprintf("https://boards.greenhouse.io/%s", slug),
		fmt.Sprintf("https://job-boards.greenhouse.io/%s", slug),
		fmt.Sprintf("https://jobs.lever.co/%s", slug),
		fmt.Sprintf("https://jobs.ashbyhq.com/%s", slug),
		fmt.Sprintf("https://jobs.smartrecruiters.com/%s", slug),
		fmt.Sprintf("https://%s.bamboohr.com/careers", slug),
		fmt.Sprintf("https://jobs.jobvite.com/%s", slug),
		fmt.Sprintf("https://apply.workable.com/%s", slug),
		fmt.Sprintf("https://%s.workable.com", slug),
		fmt.Sprintf("https://%s.icims.com/jobs", slug),
		fmt.Sprintf("https://careers.%s.icims.com/jobs", slug),
		fmt.Sprintf("https://%s.wd5.myworkdayjobs.com", slug),
		fmt.Sprintf("https://%s.wd1.myworkdayjobs.com", slug),
	}
}

// isCareerPage requires several career keywords, or an ATS marker for
// boards that render client side.
func isCareerPage(html []byte, url string) bool {
	content := strings.ToLower(string(html))
	count := 0
	for _, kw := range careerKeywords {
		if strings.Contains(content, kw) {
			count++
		}
	}
	if count >= 3 {
		return true
	}
	return hasATSMarkers(html, url)
}

func hasATSMarkers(html []byte, url string) bool {
	haystack := strings.ToLower(string(html) + " " + url)
	for _, marker := range atsMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}

// hasJSONLDJobs reports whether any ld+json block contains a JobPosting
// node.
func hasJSONLDJobs(html []byte) bool {
	matches := ldJSONBlockRe.FindAllSubmatch(html, 20)
	for _, m := range matches {
		block := m[1]
		if len(block) > maxJSONBlockBytes {
			continue
		}
		var data any
		if err := json.Unmarshal(block, &data); err != nil {
			continue
		}
		if containsJobPosting(data, 0) {
			return true
		}
	}
	return false
}

func containsJobPosting(data any, depth int) bool {
	if depth > 10 {
		return false
	}
	switch v := data.(type) {
	case map[string]any:
		if t, ok := v["@type"].(string); ok && t == "JobPosting" {
			return true
		}
		for _, child := range v {
			if containsJobPosting(child, depth+1) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if containsJobPosting(item, depth+1) {
				return true
			}
		}
	}
	return false
}

// jobListingSelectors are the markup shapes careers CMSes commonly use.
var jobListingSelectors = []string{
	"div.job-listing",
	"div.job-item",
	"div.job-post",
	"div.position",
	"li.job",
	"article.job",
	"tr.job-row",
	`div[class*="job"]`,
	"div[data-job]",
}

// hasJobListingsHTML looks for repeated job-listing markup; a single
// hit is usually navigation, two or more is a board.
func hasJobListingsHTML(html []byte) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return false
	}
	for _, selector := range jobListingSelectors {
		if doc.Find(selector).Length() >= 2 {
			return true
		}
	}
	return false
}

func capBytes(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
