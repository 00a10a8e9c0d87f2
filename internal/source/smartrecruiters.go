package source

import (
	"context"
	"fmt"
	"strings"

	"jobradar/internal/radar"
)

// smartRecruitersPageLimit is the page size the postings API is asked
// for; maxSmartRecruitersPages is a safety cap against boards that keep
// reporting more results than they serve.
const (
	smartRecruitersPageLimit = 100
	maxSmartRecruitersPages  = 50
)

// SmartRecruiters reads the public postings API with pagination.
type SmartRecruiters struct {
	deps Deps

	// endpoint root, swappable in tests
	base string
}

// NewSmartRecruiters builds the SmartRecruiters connector.
func NewSmartRecruiters(d Deps) *SmartRecruiters {
	return &SmartRecruiters{deps: d, base: "https://api.smartrecruiters.com"}
}

// Source implements radar.Connector.
func (s *SmartRecruiters) Source() string { return radar.SourceSmartRecruiter }

type smartRecruitersLocation struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

func (l smartRecruitersLocation) join() string {
	var parts []string
	for _, p := range []string{l.City, l.Region, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type smartRecruitersPosting struct {
	ID           any                     `json:"id"`
	Name         string                  `json:"name"`
	PostingURL   string                  `json:"postingUrl"`
	Ref          string                  `json:"ref"`
	Location     smartRecruitersLocation `json:"location"`
	ReleasedDate string                  `json:"releasedDate"`
}

type smartRecruitersPage struct {
	Offset     int                      `json:"offset"`
	Limit      int                      `json:"limit"`
	TotalFound *int                     `json:"totalFound"`
	Content    []smartRecruitersPosting `json:"content"`
}

// PageURL returns one page of the postings endpoint.
func (s *SmartRecruiters) PageURL(token string, limit, offset int) string {
	return fmt.Sprintf("%s/v1/companies/%s/postings?limit=%d&offset=%d",
		s.base, token, limit, offset)
}

// Fetch implements radar.Connector. Pagination stops on an empty page,
// when offset+limit reaches totalFound, or at the page cap.
func (s *SmartRecruiters) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	company := target.Company
	if company == "" {
		company = target.Token
	}

	var out []radar.Posting
	offset := 0
	for page := 0; page < maxSmartRecruitersPages; page++ {
		var result smartRecruitersPage
		url := s.PageURL(target.Token, smartRecruitersPageLimit, offset)
		if err := s.deps.Client.GetJSON(ctx, url, &result); err != nil {
			if page == 0 {
				return nil, fmt.Errorf("smartrecruiters %s: %w", target.Token, err)
			}
			break
		}
		if len(result.Content) == 0 {
			break
		}

		for _, item := range result.Content {
			jobID := jsonIDString(item.ID)
			if jobID == "" {
				continue
			}
			loc := item.Location.join()
			if !s.deps.Filter.Passes(item.Name, loc) {
				continue
			}
			jobURL := item.PostingURL
			if jobURL == "" {
				jobURL = item.Ref
			}
			out = append(out, radar.Posting{
				Source:   radar.SourceSmartRecruiter,
				JobID:    jobID,
				Title:    item.Name,
				Company:  company,
				Location: loc,
				URL:      jobURL,
				PostedAt: parseTime(item.ReleasedDate),
			})
		}

		if result.TotalFound != nil && offset+smartRecruitersPageLimit >= *result.TotalFound {
			break
		}
		offset += smartRecruitersPageLimit
	}
	return out, nil
}
