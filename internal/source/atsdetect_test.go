package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar/internal/radar"
)

func TestGreenhouseBoardToken(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://boards.greenhouse.io/acme", "acme"},
		{"https://job-boards.greenhouse.io/acme/jobs/123", "acme"},
		{"https://boards.greenhouse.io/boards/acme", "acme"},
		{"https://boards.greenhouse.io/job-boards/acme", "acme"},
		{"https://boards.greenhouse.io/", ""},
		{"https://example.com/acme", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, greenhouseBoardToken(tc.url), tc.url)
	}
}

func TestLeverToken(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://jobs.lever.co/acme", "acme"},
		{"https://jobs.lever.co/acme/some-posting", "acme"},
		{"https://acme.lever.co/postings", "acme"},
		{"https://lever.co/acme", ""},
		{"https://jobs.lever.co/", ""},
		{"https://example.com/acme", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, leverToken(tc.url), tc.url)
	}
}

func TestSmartRecruitersToken(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://jobs.smartrecruiters.com/Acme", "Acme"},
		{"https://careers.smartrecruiters.com/companies/Acme/jobs", "Acme"},
		{"https://www.smartrecruiters.com/Acme", ""},
		{"https://careers.smartrecruiters.com/companies", ""},
		{"https://example.com/companies/Acme", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, smartRecruitersToken(tc.url), tc.url)
	}
}

func TestAshbyToken(t *testing.T) {
	assert.Equal(t, "acme", ashbyToken("https://jobs.ashbyhq.com/acme"))
	assert.Equal(t, "", ashbyToken("https://jobs.ashbyhq.com/"))
	assert.Equal(t, "", ashbyToken("https://example.com/acme"))
}

func TestDispatchOrderAndMatch(t *testing.T) {
	routes := newATSRoutes(Deps{})

	cases := []struct {
		url        string
		wantSource string
		wantToken  string
	}{
		{"https://boards.greenhouse.io/acme", radar.SourceGreenhouse, "acme"},
		{"https://jobs.lever.co/acme", radar.SourceLever, "acme"},
		{"https://jobs.smartrecruiters.com/Acme", radar.SourceSmartRecruiter, "Acme"},
		{"https://jobs.ashbyhq.com/acme", radar.SourceAshby, "acme"},
		{"https://acme.wd5.myworkdayjobs.com/careers", radar.SourceWorkday, ""},
		{"https://careers-acme.icims.com/jobs/search", radar.SourceICIMS, ""},
		{"https://jobs.jobvite.com/acme", radar.SourceJobvite, ""},
		{"https://acme.bamboohr.com/careers", radar.SourceBambooHR, ""},
		{"https://apply.workable.com/acme/", radar.SourceWorkable, ""},
	}
	for _, tc := range cases {
		var matched *radar.Target
		for _, route := range routes {
			if target, ok := route.match("Acme Inc", tc.url); ok {
				matched = &target
				break
			}
		}
		require.NotNil(t, matched, tc.url)
		assert.Equal(t, tc.wantSource, matched.Source, tc.url)
		assert.Equal(t, tc.wantToken, matched.Token, tc.url)
		assert.Equal(t, "Acme Inc", matched.Company, tc.url)
	}
}

func TestDispatchMiss(t *testing.T) {
	routes := newATSRoutes(Deps{})
	postings, matched, err := dispatchKnownATS(context.Background(), routes, "Acme", "https://example.com/careers")
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Empty(t, postings)
}

func TestRelabelCompany(t *testing.T) {
	in := []radar.Posting{{Source: radar.SourceGreenhouse, JobID: "1", Company: "acme-board"}}
	out := relabelCompany(in, "Acme Inc")
	require.Len(t, out, 1)
	assert.Equal(t, "Acme Inc", out[0].Company)
	assert.Equal(t, radar.SourceGreenhouse, out[0].Source)
}
