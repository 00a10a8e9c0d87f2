package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobradar/internal/radar"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestUpsertInsertThenUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }

	p := radar.Posting{
		Source:  radar.SourceGreenhouse,
		JobID:   "42",
		Title:   "Senior Data Engineer",
		Company: "acme",
		URL:     "https://example.com/jobs/42",
		Score:   3,
	}
	inserted, err := s.Upsert(ctx, p)
	require.NoError(t, err)
	assert.True(t, inserted)

	s.now = func() time.Time { return t0.Add(24 * time.Hour) }
	inserted, err = s.Upsert(ctx, p)
	require.NoError(t, err)
	assert.False(t, inserted)

	feed, err := s.Feed(ctx, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
}

func TestUpsertMergeSemantics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }

	posted := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	first := radar.Posting{
		Source: "lever", JobID: "a", Title: "ML Engineer", Company: "acme",
		URL: "https://x/jobs/a", PostedAt: ptrTime(posted), Score: 2,
	}
	_, err := s.Upsert(ctx, first)
	require.NoError(t, err)

	// Second sighting: no posted date, lower score, but a description.
	s.now = func() time.Time { return t0.Add(time.Hour) }
	second := first
	second.PostedAt = nil
	second.Score = 1
	second.Description = "python and sql"
	_, err = s.Upsert(ctx, second)
	require.NoError(t, err)

	feed, err := s.Feed(ctx, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	got := feed[0]
	require.NotNil(t, got.PostedAt)
	assert.True(t, got.PostedAt.Equal(posted), "original posted_at is kept")
	assert.Equal(t, "python and sql", got.Description, "empty description is filled in")
	assert.Equal(t, 2, got.Score, "score never decreases")
}

func TestFeedOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	add := func(id string, posted *time.Time, seenOffset time.Duration) {
		s.now = func() time.Time { return base.Add(seenOffset) }
		_, err := s.Upsert(ctx, radar.Posting{
			Source: "greenhouse", JobID: id, Title: "Software Engineer",
			Company: "acme", URL: "https://x/" + id, PostedAt: posted,
		})
		require.NoError(t, err)
	}

	add("undated-old", nil, 0)
	add("dated-old", ptrTime(base.AddDate(0, 0, -10)), time.Minute)
	add("dated-new", ptrTime(base.AddDate(0, 0, -1)), 2*time.Minute)
	add("undated-new", nil, 3*time.Minute)

	feed, err := s.Feed(ctx, 0)
	require.NoError(t, err)
	require.Len(t, feed, 4)
	assert.Equal(t, "dated-new", feed[0].JobID)
	assert.Equal(t, "dated-old", feed[1].JobID)
	assert.Equal(t, "undated-new", feed[2].JobID)
	assert.Equal(t, "undated-old", feed[3].JobID)

	limited, err := s.Feed(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecentWindowAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	add := func(id string, daysAgo, score int) {
		_, err := s.Upsert(ctx, radar.Posting{
			Source: "ashby", JobID: id, Title: "Data Scientist", Company: "acme",
			URL: "https://x/" + id, PostedAt: ptrTime(base.AddDate(0, 0, -daysAgo)), Score: score,
		})
		require.NoError(t, err)
	}
	add("in-window-low", 3, 1)
	add("in-window-high", 5, 9)
	add("out-of-window", 30, 9)

	got, err := s.Recent(ctx, 7, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "in-window-high", got[0].JobID)
	assert.Equal(t, "in-window-low", got[1].JobID)
}
