package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobradar/internal/filter"
	"jobradar/internal/radar"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// stripHTML reduces an HTML fragment to its visible text.
func stripHTML(raw string) string {
	return collapseText(html.UnescapeString(htmlTagRe.ReplaceAllString(raw, " ")))
}

// extractJSONLDPostings finds schema.org JobPosting nodes in ld+json
// script blocks and converts them to postings. The @type match is
// case-insensitive and @graph containers are walked recursively.
func extractJSONLDPostings(company, baseURL string, htmlBody []byte, f *filter.Engine) []radar.Posting {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return nil
	}

	var out []radar.Posting
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		block := strings.TrimSpace(sel.Text())
		// Some sites wrap the block in an HTML comment.
		block = strings.TrimSuffix(strings.TrimPrefix(block, "<!--"), "-->")
		if block == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(block), &data); err != nil {
			return
		}
		for _, node := range jobPostingNodes(data) {
			if p, ok := postingFromNode(company, baseURL, node, f); ok {
				out = append(out, p)
			}
		}
	})
	return out
}

// jobPostingNodes walks arbitrary JSON-LD and collects every node whose
// @type includes JobPosting.
func jobPostingNodes(data any) []map[string]any {
	var out []map[string]any
	switch v := data.(type) {
	case map[string]any:
		if nodeIsJobPosting(v) {
			out = append(out, v)
		}
		for _, child := range v {
			out = append(out, jobPostingNodes(child)...)
		}
	case []any:
		for _, item := range v {
			out = append(out, jobPostingNodes(item)...)
		}
	}
	return out
}

func nodeIsJobPosting(node map[string]any) bool {
	switch t := node["@type"].(type) {
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "JobPosting")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(strings.TrimSpace(s), "JobPosting") {
				return true
			}
		}
	}
	return false
}

func postingFromNode(company, baseURL string, node map[string]any, f *filter.Engine) (radar.Posting, bool) {
	title := strings.TrimSpace(stringValue(node["title"]))
	if title == "" {
		return radar.Posting{}, false
	}

	jobURL := strings.TrimSpace(stringValue(node["url"]))
	if jobURL != "" {
		jobURL = resolveURL(baseURL, jobURL)
	}
	if jobURL == "" {
		jobURL = baseURL
	}

	location := jobPostingLocation(node)
	description := stripHTML(stringValue(node["description"]))
	posted := parseTime(stringValue(node["datePosted"]))

	jobID := identifierValue(node["identifier"])
	if jobID == "" {
		jobID = stableID(fmt.Sprintf("%s|%s|%s", company, jobURL, title))
	}

	if !f.Passes(title, location) {
		return radar.Posting{}, false
	}

	return radar.Posting{
		Source:      radar.SourceWebScrape,
		JobID:       jobID,
		Title:       title,
		Company:     company,
		Location:    location,
		URL:         jobURL,
		Description: description,
		PostedAt:    posted,
	}, true
}

// jobPostingLocation renders the jobLocation address parts, with
// telecommute job types short-circuiting to Remote.
func jobPostingLocation(node map[string]any) string {
	locType := filter.Normalize(stringValue(node["jobLocationType"]))
	if strings.Contains(locType, "telecommute") || strings.Contains(locType, "remote") {
		return "Remote"
	}

	var locations []any
	switch v := node["jobLocation"].(type) {
	case []any:
		locations = v
	case map[string]any:
		locations = []any{v}
	}

	var parts []string
	seen := make(map[string]struct{})
	for _, loc := range locations {
		locMap, ok := loc.(map[string]any)
		if !ok {
			continue
		}
		address, ok := locMap["address"].(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
			val := strings.TrimSpace(stringValue(address[key]))
			if val == "" {
				continue
			}
			if _, dup := seen[val]; dup {
				continue
			}
			seen[val] = struct{}{}
			parts = append(parts, val)
		}
	}
	return strings.Join(parts, ", ")
}

// identifierValue handles the PropertyValue object, bare string, and
// @id forms of schema.org identifiers.
func identifierValue(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case map[string]any:
		for _, key := range []string{"value", "@id", "name"} {
			if s := strings.TrimSpace(stringValue(id[key])); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", s), "0"), ".")
	default:
		return ""
	}
}
