// Package radar defines the core domain types shared across the
// collection pipeline: postings, collection targets, and the interfaces
// the orchestrator depends on.
package radar

import (
	"context"
	"time"
)

// Posting is one normalized job posting as produced by a connector.
// PostedAt is nil when the source does not expose a publish date.
type Posting struct {
	Source      string     `json:"source"`
	Company     string     `json:"company"`
	Title       string     `json:"title"`
	Location    string     `json:"location"`
	URL         string     `json:"url"`
	JobID       string     `json:"job_id"`
	Description string     `json:"description,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	Score       int        `json:"score"`
}

// Key returns the natural identity of a posting. Two postings with the
// same key are the same job observed at different times.
func (p Posting) Key() PostingKey {
	return PostingKey{Source: p.Source, JobID: p.JobID}
}

// PostingKey is the (source, job_id) pair used for idempotent merging.
type PostingKey struct {
	Source string `json:"source"`
	JobID  string `json:"job_id"`
}

// Target describes one company to collect from: which connector to use,
// the ATS token or board identifier, and the career URL for scrape-based
// sources.
type Target struct {
	Source  string
	Company string
	Token   string
	URL     string
}

// Connector fetches raw postings for a single target. Implementations
// must be safe for concurrent use; the orchestrator calls Fetch from
// many goroutines.
type Connector interface {
	Source() string
	Fetch(ctx context.Context, target Target) ([]Posting, error)
}

// Store persists postings keyed by (source, job_id).
type Store interface {
	// Upsert merges the posting into the store. It returns true when a
	// new row was created and false when an existing row was updated.
	Upsert(ctx context.Context, p Posting) (inserted bool, err error)

	// Recent returns postings whose posted_at falls within the last
	// sinceDays days, ordered by score then recency.
	Recent(ctx context.Context, sinceDays int, limit int) ([]Posting, error)

	// Feed returns postings for feed export: dated postings first, then
	// by publish date descending, then by last-seen recency.
	Feed(ctx context.Context, limit int) ([]Posting, error)

	Close() error
}

// Source identifiers. Connectors register under these names and stored
// postings carry them in the source column.
const (
	SourceGreenhouse     = "greenhouse"
	SourceLever          = "lever"
	SourceSmartRecruiter = "smartrecruiters"
	SourceAshby          = "ashby"
	SourceWorkday        = "workday"
	SourceJobvite        = "jobvite"
	SourceWorkable       = "workable"
	SourceICIMS          = "icims"
	SourceBambooHR       = "bamboohr"
	SourceWebScrape      = "webscrape"
)
