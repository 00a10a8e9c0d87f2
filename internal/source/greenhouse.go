package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"jobradar/internal/radar"
)

// Greenhouse reads the public board API.
type Greenhouse struct {
	deps Deps
}

// NewGreenhouse builds the Greenhouse connector.
func NewGreenhouse(d Deps) *Greenhouse {
	return &Greenhouse{deps: d}
}

// Source implements radar.Connector.
func (g *Greenhouse) Source() string { return radar.SourceGreenhouse }

type greenhouseJob struct {
	ID       any    `json:"id"`
	Title    string `json:"title"`
	Absolute string `json:"absolute_url"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	UpdatedAt string `json:"updated_at"`
}

type greenhouseBoard struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// BoardURL returns the public jobs endpoint for a board token.
func (g *Greenhouse) BoardURL(token string) string {
	return fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs", token)
}

// Fetch implements radar.Connector.
func (g *Greenhouse) Fetch(ctx context.Context, target radar.Target) ([]radar.Posting, error) {
	var board greenhouseBoard
	if err := g.deps.Client.GetJSON(ctx, g.BoardURL(target.Token), &board); err != nil {
		return nil, fmt.Errorf("greenhouse %s: %w", target.Token, err)
	}

	company := target.Company
	if company == "" {
		company = target.Token
	}

	var out []radar.Posting
	for _, item := range board.Jobs {
		jobID := jsonIDString(item.ID)
		if jobID == "" {
			continue
		}
		if !g.deps.Filter.Passes(item.Title, item.Location.Name) {
			continue
		}
		out = append(out, radar.Posting{
			Source:   radar.SourceGreenhouse,
			JobID:    jobID,
			Title:    item.Title,
			Company:  company,
			Location: item.Location.Name,
			URL:      item.Absolute,
			// updated_at is the closest thing the board API has to a
			// posting date.
			PostedAt: parseTime(item.UpdatedAt),
		})
	}
	return out, nil
}

// jsonIDString renders numeric or string JSON identifiers uniformly.
func jsonIDString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatInt(int64(id), 10)
	default:
		return ""
	}
}
