package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameVariants(t *testing.T) {
	assert.Equal(t, []string{"acme"}, nameVariants("Acme"))
	assert.Equal(t,
		[]string{"acmelabs", "acme-labs", "acme"},
		nameVariants("Acme Labs!"))
	assert.Empty(t, nameVariants("   "))
	assert.Empty(t, nameVariants("株式会社"))
}

func TestURLPatternsCoverKnownATSHosts(t *testing.T) {
	patterns := urlPatterns("acme")
	assert.Len(t, patterns, 28)
	assert.Contains(t, patterns, "https://boards.greenhouse.io/acme")
	assert.Contains(t, patterns, "https://jobs.lever.co/acme")
	assert.Contains(t, patterns, "https://acme.wd5.myworkdayjobs.com")
	assert.Contains(t, patterns, "https://careers.acme.com")
}

func TestIsCareerPage(t *testing.T) {
	assert.True(t, isCareerPage(
		[]byte("We are hiring! Browse open positions and apply for a job today."), ""))
	assert.False(t, isCareerPage([]byte("About our company history."), "https://acme.com/about"))
	// JS-rendered board: markers in the page source still count.
	assert.True(t, isCareerPage(
		[]byte(`<script src="https://boards.greenhouse.io/embed/job_board.js"></script>`), ""))
	// Or in the URL itself.
	assert.True(t, isCareerPage([]byte("loading"), "https://acme.wd5.myworkdayjobs.com/careers"))
}

func TestHasJSONLDJobs(t *testing.T) {
	page := []byte(`<script type="application/ld+json">
{"@graph": [{"@type": "JobPosting", "title": "Engineer"}]}
</script>`)
	assert.True(t, hasJSONLDJobs(page))

	assert.False(t, hasJSONLDJobs([]byte(`<script type="application/ld+json">{"@type": "Organization"}</script>`)))
	assert.False(t, hasJSONLDJobs([]byte(`<script type="application/ld+json">not json</script>`)))
	assert.False(t, hasJSONLDJobs([]byte(`<p>no structured data</p>`)))
}

func TestHasJobListingsHTML(t *testing.T) {
	board := []byte(`<div class="job-listing">A</div><div class="job-listing">B</div>`)
	assert.True(t, hasJobListingsHTML(board))

	single := []byte(`<div class="job-listing">A</div>`)
	assert.False(t, hasJobListingsHTML(single))

	classContains := []byte(`<div class="open-job-card">A</div><div class="open-job-card">B</div>`)
	assert.True(t, hasJobListingsHTML(classContains))
}
