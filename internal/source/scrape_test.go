package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAnchors(t *testing.T) {
	page := `<html><body>
<a href="/jobs/1">  Senior   Engineer </a>
<a href="/jobs/2"></a>
<a>no href</a>
</body></html>`
	anchors := extractAnchors([]byte(page))
	require.Len(t, anchors, 2)
	assert.Equal(t, anchor{href: "/jobs/1", text: "Senior Engineer"}, anchors[0])
	assert.Equal(t, anchor{href: "/jobs/2", text: ""}, anchors[1])
}

func TestUsableLinkTitle(t *testing.T) {
	assert.True(t, usableLinkTitle("Software Engineer"))
	assert.False(t, usableLinkTitle("View"))
	assert.False(t, usableLinkTitle("Apply Now"))
	assert.False(t, usableLinkTitle("Learn More"))
	assert.False(t, usableLinkTitle("Go"))
}

func TestLooksLikeJobURL(t *testing.T) {
	assert.True(t, looksLikeJobURL("https://x.com/careers/opening/1"))
	assert.True(t, looksLikeJobURL("https://x.com/requisition?id=9"))
	assert.True(t, looksLikeJobURL("https://x.com/opportunities/12"))
	assert.False(t, looksLikeJobURL("https://x.com/about-us"))
}
