package source

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar/internal/radar"
)

func TestWorkableParseWidgetJobs(t *testing.T) {
	c := NewWorkable(newTestDeps(t))
	target := radar.Target{Company: "Acme", URL: "https://apply.workable.com/acme/"}

	var widget workableWidget
	require.NoError(t, json.Unmarshal([]byte(`{"jobs": [
		{"shortcode": "AB12CD", "title": "Senior Data Engineer", "location": {"city": "Denver", "country": "United States"}, "published": "2026-08-01"},
		{"shortcode": "EF34GH", "title": "Data Scientist", "location": "Remote", "url": "https://apply.workable.com/acme/j/EF34GH/"},
		{"shortcode": "IJ56KL", "title": "Office Manager", "location": "Remote"}
	]}`), &widget))

	out := c.parseWidgetJobs(widget, "acme", target)
	require.Len(t, out, 2)

	assert.Equal(t, "AB12CD", out[0].JobID)
	assert.Equal(t, "Denver, United States", out[0].Location)
	assert.Equal(t, "https://apply.workable.com/acme/j/AB12CD/", out[0].URL)
	require.NotNil(t, out[0].PostedAt)

	assert.Equal(t, "EF34GH", out[1].JobID)
	assert.Equal(t, "Remote", out[1].Location)
	assert.Equal(t, radar.SourceWorkable, out[1].Source)
}

func TestWorkableAccount(t *testing.T) {
	assert.Equal(t, "acme", workableAccount("https://apply.workable.com/acme/"))
	assert.Equal(t, "acme", workableAccount("https://acme.workable.com/"))
	assert.Equal(t, "", workableAccount("https://apply.workable.com/"))
	assert.Equal(t, "", workableAccount("https://example.com/acme"))
}
