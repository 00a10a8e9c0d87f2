package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2026-08-10T12:30:00Z", time.Date(2026, 8, 10, 12, 30, 0, 0, time.UTC)},
		{"2026-08-10", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)},
		{"08/10/2026", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)},
		{"Mon, 10 Aug 2026 12:30:00 +0000", time.Date(2026, 8, 10, 12, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got := parseTime(tc.raw)
		require.NotNil(t, got, "parseTime(%q)", tc.raw)
		assert.True(t, got.Equal(tc.want), "parseTime(%q) = %v, want %v", tc.raw, got, tc.want)
	}

	assert.Nil(t, parseTime(""))
	assert.Nil(t, parseTime("posted yesterday"))
}

func TestParseEpochMillis(t *testing.T) {
	got := parseEpochMillis(1754822400000)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, 8, 10, 10, 40, 0, 0, time.UTC), got.UTC())

	assert.Nil(t, parseEpochMillis(0))
	assert.Nil(t, parseEpochMillis(-5))
}

func TestCollapseText(t *testing.T) {
	assert.Equal(t, "Senior Data Engineer", collapseText("  Senior \n\t Data   Engineer "))
	assert.Equal(t, "", collapseText(" \n "))
}

func TestResolveURL(t *testing.T) {
	base := "https://example.com/careers/"
	assert.Equal(t, "https://example.com/careers/123", resolveURL(base, "123"))
	assert.Equal(t, "https://example.com/jobs/9", resolveURL(base, "/jobs/9"))
	assert.Equal(t, "https://other.com/x", resolveURL(base, "https://other.com/x"))
	assert.Equal(t, "", resolveURL(base, "mailto:jobs@example.com"))
	assert.Equal(t, "", resolveURL(base, "javascript:void(0)"))
	assert.Equal(t, "", resolveURL(base, ""))
}

func TestHostAndPathHelpers(t *testing.T) {
	assert.Equal(t, "jobs.example.com", hostOf("https://Jobs.Example.com/a/b"))
	assert.Equal(t, []string{"a", "b"}, pathParts("https://x.com//a//b/"))
	assert.Nil(t, pathParts("https://x.com"))
}
