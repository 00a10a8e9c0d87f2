// Package filter implements the normalization and filter engine: title
// and location gating, staleness checks, and the deterministic additive
// relevance score.
package filter

import (
	"regexp"
	"strings"
	"time"
)

// roleKeywords admit a posting when any of them appears in the
// normalized title.
var roleKeywords = []string{
	"data scientist",
	"data analyst",
	"data engineer",
	"analytics engineer",
	"business intelligence",
	"bi developer",

	"machine learning",
	"ml engineer",
	"ai engineer",
	"artificial intelligence",

	"research scientist",
	"applied scientist",
	"research engineer",
	"machine learning researcher",
	"ai researcher",

	"quantitative analyst",
	"quantitative researcher",
	"quant developer",

	"data science manager",
	"analytics manager",
	"ml manager",

	"software engineer, ml",
	"software engineer - machine learning",
	"software engineer - ai",
	"backend engineer - data",
}

// excludeKeywords reject a posting when any of them appears in the
// normalized title, even if a role keyword matched.
var excludeKeywords = []string{
	"intern", "internship", "co-op", "contract", "temporary", "part-time",
}

var stateAbbrevRe = regexp.MustCompile(`,\s*(al|ak|az|ar|ca|co|ct|de|fl|ga|hi|ia|id|il|in|ks|ky|la|ma|md|me|mi|mn|mo|ms|mt|nc|nd|ne|nh|nj|nm|nv|ny|oh|ok|or|pa|ri|sc|sd|tn|tx|ut|va|vt|wa|wi|wv|wy)\b`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases and collapses whitespace.
func Normalize(s string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

func containsAny(text string, keywords []string) bool {
	t := Normalize(text)
	for _, k := range keywords {
		if strings.Contains(t, Normalize(k)) {
			return true
		}
	}
	return false
}

// Engine evaluates postings against the configured rules. The zero
// value is not usable; construct with New.
type Engine struct {
	maxAgeDays  int
	allowUS     bool
	allowRemote bool
	now         func() time.Time
}

// New builds an Engine with the given staleness window in days.
func New(maxAgeDays int) *Engine {
	return &Engine{
		maxAgeDays:  maxAgeDays,
		allowUS:     true,
		allowRemote: true,
		now:         time.Now,
	}
}

// Passes reports whether a posting survives the title and location
// gates. An empty location never rejects; many boards omit it.
func (e *Engine) Passes(title, location string) bool {
	if !containsAny(title, roleKeywords) {
		return false
	}
	if containsAny(title, excludeKeywords) {
		return false
	}
	if location != "" && !e.locationOK(location) {
		return false
	}
	return true
}

// locationOK accepts remote markers and US locations in the formats the
// major boards emit.
func (e *Engine) locationOK(location string) bool {
	loc := Normalize(location)

	if e.allowRemote && (strings.Contains(loc, "remote") ||
		strings.Contains(loc, "work from home") || strings.Contains(loc, "wfh")) {
		return true
	}

	if !e.allowUS {
		return true
	}

	if strings.Contains(loc, "united states") {
		return true
	}

	// SmartRecruiters format: "Seattle WA US"
	if strings.HasSuffix(loc, " us") || strings.Contains(loc, " usa") || strings.HasSuffix(loc, " usa") {
		return true
	}

	// State abbreviations with comma (Greenhouse/Lever)
	return stateAbbrevRe.MatchString(loc)
}

// Stale reports whether the posting is older than the configured
// window. Postings exactly at the boundary are still fresh; postings
// without a date are never stale.
func (e *Engine) Stale(postedAt *time.Time) bool {
	if postedAt == nil {
		return false
	}
	age := e.now().Sub(*postedAt)
	return int(age.Hours()/24) > e.maxAgeDays
}

// skillKeywords are matched against the normalized description.
var skillKeywords = []struct {
	kw  string
	pts int
}{
	{"python", 1}, {"r programming", 1}, {"sql", 1},
	{"spark", 1}, {"aws", 1}, {"azure", 1}, {"gcp", 1},
	{"tableau", 1}, {"power bi", 1}, {"looker", 1},
	{"pytorch", 1}, {"tensorflow", 1}, {"scikit-learn", 1},
	{"healthcare", 2}, {"medical", 2}, {"clinical", 2},
	{"education", 1}, {"university", 1}, {"research", 1},
}

// Score computes the deterministic additive relevance score. Equal
// inputs always produce equal scores; the store keeps the maximum score
// ever seen for a posting.
func Score(title, location, description string) int {
	s := 0
	t := Normalize(title)
	loc := Normalize(location)
	desc := Normalize(description)

	if strings.Contains(loc, "remote") {
		s += 2
	}

	// Mild seniority penalty; mid-level markers get a bonus.
	for _, x := range []string{"senior", "staff", "principal", "lead"} {
		if strings.Contains(t, x) {
			s--
			break
		}
	}
	for _, x := range []string{" ii", " iii", " 2", " 3"} {
		if strings.Contains(t, x) {
			s++
			break
		}
	}

	if strings.Contains(t, "engineer") {
		s++
	}
	if strings.Contains(t, "scientist") {
		s++
	}
	if strings.Contains(t, "analyst") {
		s++
	}

	for _, sk := range skillKeywords {
		if strings.Contains(desc, sk.kw) {
			s += sk.pts
		}
	}

	return s
}
