package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar/internal/radar"
)

func TestJSONIDString(t *testing.T) {
	assert.Equal(t, "123", jsonIDString(float64(123)))
	assert.Equal(t, "abc", jsonIDString(" abc "))
	assert.Equal(t, "", jsonIDString(nil))
	assert.Equal(t, "", jsonIDString(true))
}

func TestBoardEndpointURLs(t *testing.T) {
	gh := NewGreenhouse(Deps{})
	assert.Equal(t, "https://boards-api.greenhouse.io/v1/boards/acme/jobs", gh.BoardURL("acme"))

	lv := NewLever(Deps{})
	assert.Equal(t, "https://api.lever.co/v0/postings/acme?mode=json", lv.PostingsURL("acme"))

	sr := NewSmartRecruiters(Deps{})
	assert.Equal(t,
		"https://api.smartrecruiters.com/v1/companies/Acme/postings?limit=100&offset=200",
		sr.PageURL("Acme", 100, 200))

	ab := NewAshby(Deps{})
	assert.Equal(t, "https://jobs.ashbyhq.com/acme/jobs", ab.BoardURL("acme"))
}

func TestSmartRecruitersFetchStopsAtPageCap(t *testing.T) {
	// A board that always answers a full page with an inflated
	// totalFound must stop at the page cap, not drain forever.
	inflated := 1 << 30
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		items := make([]smartRecruitersPosting, 0, smartRecruitersPageLimit)
		for i := 0; i < smartRecruitersPageLimit; i++ {
			items = append(items, smartRecruitersPosting{
				ID:         fmt.Sprintf("%d-%d", requests, i),
				Name:       "Senior Data Engineer",
				PostingURL: "https://example.com/job",
				Location:   smartRecruitersLocation{City: "Remote"},
			})
		}
		_ = json.NewEncoder(w).Encode(smartRecruitersPage{TotalFound: &inflated, Content: items})
	}))
	defer srv.Close()

	sr := NewSmartRecruiters(newTestDeps(t))
	sr.base = srv.URL
	out, err := sr.Fetch(context.Background(), radar.Target{Company: "Acme", Token: "acme"})
	require.NoError(t, err)
	assert.Equal(t, maxSmartRecruitersPages, requests)
	assert.Len(t, out, maxSmartRecruitersPages*smartRecruitersPageLimit)
}

func TestSmartRecruitersLocationJoin(t *testing.T) {
	loc := smartRecruitersLocation{City: "Austin", Region: "TX", Country: "US"}
	assert.Equal(t, "Austin TX US", loc.join())
	assert.Equal(t, "US", smartRecruitersLocation{Country: "US"}.join())
	assert.Equal(t, "", smartRecruitersLocation{}.join())
}

func TestICIMSJobIDPattern(t *testing.T) {
	m := icimsJobIDRe.FindStringSubmatch("/jobs/12345/software-engineer/job")
	assert.Equal(t, "12345", m[1])
	assert.Nil(t, icimsJobIDRe.FindStringSubmatch("/jobs/search"))
}

func TestBambooJobIDPattern(t *testing.T) {
	m := bambooJobIDRe.FindStringSubmatch("/careers/42?source=site")
	assert.Equal(t, "42", m[1])
}

func TestHostGates(t *testing.T) {
	assert.Equal(t, "https://careers-acme.icims.com", icimsBase("https://careers-acme.icims.com/jobs/search?ss=1"))
	assert.Equal(t, "", icimsBase("https://example.com/jobs"))

	assert.Equal(t, "acme.bamboohr.com", bambooHost("https://acme.bamboohr.com/careers"))
	assert.Equal(t, "", bambooHost("ftp://acme.bamboohr.com/careers"))
	assert.Equal(t, "", bambooHost("https://example.com/careers"))
}
