package source

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobradar/internal/filter"
)

// genericLinkTexts are call-to-action labels that carry no job title.
var genericLinkTexts = map[string]struct{}{
	"learn more":   {},
	"read more":    {},
	"details":      {},
	"apply":        {},
	"apply now":    {},
	"view":         {},
	"view details": {},
	"more":         {},
}

// jobURLHints mark link targets that plausibly lead to a posting.
var jobURLHints = []string{
	"job", "jobs", "career", "careers", "position", "opening", "opportunit", "requisition",
}

type anchor struct {
	href string
	text string
}

// extractAnchors pulls every link with visible text out of an HTML
// document.
func extractAnchors(htmlBody []byte) []anchor {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return nil
	}
	var out []anchor
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		out = append(out, anchor{href: href, text: collapseText(sel.Text())})
	})
	return out
}

// usableLinkTitle rejects short fragments and generic call-to-action
// labels.
func usableLinkTitle(title string) bool {
	if len(title) < 6 {
		return false
	}
	_, generic := genericLinkTexts[filter.Normalize(title)]
	return !generic
}

// looksLikeJobURL reports whether any job hint appears in the URL.
func looksLikeJobURL(rawURL string) bool {
	u := filter.Normalize(rawURL)
	for _, hint := range jobURLHints {
		if strings.Contains(u, hint) {
			return true
		}
	}
	return false
}
