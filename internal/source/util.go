package source

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// timeLayouts covers the date formats the boards actually emit.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"01/02/2006",
}

// parseTime tries the known layouts and returns nil when none match.
func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// parseEpochMillis converts a millisecond Unix timestamp.
func parseEpochMillis(ms float64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return &t
}

var collapseRe = regexp.MustCompile(`\s+`)

// collapseText trims and collapses runs of whitespace, the shape link
// text and HTML fragments arrive in.
func collapseText(s string) string {
	return collapseRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// resolveURL joins href against base, returning "" for unusable links.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := b.ResolveReference(h)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

// hostOf returns the lowercase hostname of a URL, without any port,
// matching the key the client throttles by.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// pathParts splits a URL path into its non-empty segments.
func pathParts(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
