package source

import (
	"context"
	"fmt"

	"jobradar/internal/radar"
)

// Ashby reads the hosted job board JSON endpoint.
type Ashby struct {
	deps Deps
}

// NewAshby builds the Ashby connector.
func NewAshby(d Deps) *Ashby {
	return &Ashby{deps: d}
}

// Source implements radar.Connector.
func (a *Ashby) Source() string { return radar.SourceAshby }

type ashbyJob struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	LocationName  string `json:"locationName"`
	JobURL        string `json:"jobUrl"`
	PublishedDate string `json:"publishedDate"`
}

type ashbyBoard struct {
	Jobs []ashbyJob `json:"jobs"`
}

// BoardURL returns the hosted board endpoint for a company token.
func (a *Ashby) BoardURL(token string) string {
	return fmt.Sprintf("https://jobs.ashbyhq.com/%s/jobs", token)
}

// Fetch implements radar.Connector.
func (a *Ashby) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	var board ashbyBoard
	if err := a.deps.Client.GetJSON(ctx, a.BoardURL(target.Token), &board); err != nil {
		return nil, fmt.Errorf("ashby %s: %w", target.Token, err)
	}

	company := target.Company
	if company == "" {
		company = target.Token
	}

	var out []radar.Posting
	for _, item := range board.Jobs {
		if item.ID == "" {
			continue
		}
		if !a.deps.Filter.Passes(item.Title, item.LocationName) {
			continue
		}
		jobURL := item.JobURL
		if jobURL == "" {
			jobURL = fmt.Sprintf("https://jobs.ashbyhq.com/%s/%s", target.Token, item.ID)
		}
		out = append(out, radar.Posting{
			Source:   radar.SourceAshby,
			JobID:    item.ID,
			Title:    item.Title,
			Company:  company,
			Location: item.LocationName,
			URL:      jobURL,
			PostedAt: parseTime(item.PublishedDate),
		})
	}
	return out, nil
}
