package source

import (
	"context"
	"fmt"

	"jobradar/internal/radar"
)

// Lever reads the public postings API.
type Lever struct {
	deps Deps
}

// NewLever builds the Lever connector.
func NewLever(d Deps) *Lever {
	return &Lever{deps: d}
}

// Source implements radar.Connector.
func (l *Lever) Source() string { return radar.SourceLever }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Title      string `json:"title"`
	HostedURL  string `json:"hostedUrl"`
	ApplyURL   string `json:"applyUrl"`
	Categories struct {
		Location string `json:"location"`
	} `json:"categories"`
	DescriptionPlain string  `json:"descriptionPlain"`
	Description      string  `json:"description"`
	CreatedAt        float64 `json:"createdAt"`
}

// PostingsURL returns the public postings endpoint for a site token.
func (l *Lever) PostingsURL(token string) string {
	return fmt.Sprintf("https://api.lever.co/v0/postings/%s?mode=json", token)
}

// Fetch implements radar.Connector.
func (l *Lever) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	var postings []leverPosting
	if err := l.deps.Client.GetJSON(ctx, l.PostingsURL(target.Token), &postings); err != nil {
		return nil, fmt.Errorf("lever %s: %w", target.Token, err)
	}

	company := target.Company
	if company == "" {
		company = target.Token
	}

	var out []radar.Posting
	for _, item := range postings {
		if item.ID == "" {
			continue
		}
		title := item.Text
		if title == "" {
			title = item.Title
		}
		jobURL := item.HostedURL
		if jobURL == "" {
			jobURL = item.ApplyURL
		}
		description := item.DescriptionPlain
		if description == "" {
			description = item.Description
		}
		if !l.deps.Filter.Passes(title, item.Categories.Location) {
			continue
		}
		out = append(out, radar.Posting{
			Source:      radar.SourceLever,
			JobID:       item.ID,
			Title:       title,
			Company:     company,
			Location:    item.Categories.Location,
			URL:         jobURL,
			Description: description,
			PostedAt:    parseEpochMillis(item.CreatedAt),
		})
	}
	return out, nil
}
