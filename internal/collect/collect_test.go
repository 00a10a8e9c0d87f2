package collect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobradar/internal/catalog"
	"jobradar/internal/config"
	"jobradar/internal/filter"
	"jobradar/internal/radar"
)

type fakeConnector struct {
	source   string
	postings []radar.Posting
	err      error
}

func (f *fakeConnector) Source() string { return f.source }

func (f *fakeConnector) Fetch(_ context.Context, _ radar.Target) ([]radar.Posting, error) {
	return f.postings, f.err
}

type memStore struct {
	mu   sync.Mutex
	rows map[radar.PostingKey]radar.Posting
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[radar.PostingKey]radar.Posting)}
}

func (m *memStore) Upsert(_ context.Context, p radar.Posting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, existed := m.rows[p.Key()]
	m.rows[p.Key()] = p
	return !existed, nil
}

func (m *memStore) Recent(context.Context, int, int) ([]radar.Posting, error) { return nil, nil }
func (m *memStore) Feed(context.Context, int) ([]radar.Posting, error)        { return nil, nil }
func (m *memStore) Close() error                                              { return nil }

func posting(id, title string, posted *time.Time) radar.Posting {
	return radar.Posting{
		Source: "greenhouse", JobID: id, Title: title, Company: "acme",
		URL: "https://x/" + id, PostedAt: posted,
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func newCollector(t *testing.T, connectors map[string]radar.Connector, store radar.Store) *Collector {
	t.Helper()
	dir := t.TempDir()
	cat := catalog.New(config.CatalogConfig{
		DataDir:    filepath.Join(dir, "data"),
		MasterFile: filepath.Join(dir, "companies.txt"),
	}, zap.NewNop())
	return New(connectors, store, filter.New(90), cat, zap.NewNop())
}

func TestRunMergesAndCounts(t *testing.T) {
	now := time.Now()
	store := newMemStore()
	conn := &fakeConnector{source: "greenhouse", postings: []radar.Posting{
		posting("1", "Software Engineer", ptrTime(now.AddDate(0, 0, -1))),
		posting("2", "Data Engineer", ptrTime(now.AddDate(0, 0, -200))), // stale
		{Source: "greenhouse", JobID: "", Title: "Broken", Company: "acme", URL: "https://x/b"},
	}}
	c := newCollector(t, map[string]radar.Connector{"greenhouse": conn}, store)

	targets := []radar.Target{{Source: "greenhouse", Company: "acme", Token: "acme"}}
	sum, err := c.Run(context.Background(), targets, Options{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Fetched)
	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, 1, sum.SkippedStale)
	assert.Equal(t, 1, sum.SkippedInvalid)
	assert.Empty(t, sum.ErrorsBySource)

	// Second pass sees the same posting again.
	sum, err = c.Run(context.Background(), targets, Options{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 0, sum.Inserted)
}

func TestRunTalliesConnectorErrors(t *testing.T) {
	store := newMemStore()
	conn := &fakeConnector{source: "lever", err: errors.New("boom")}
	c := newCollector(t, map[string]radar.Connector{"lever": conn}, store)

	targets := []radar.Target{
		{Source: "lever", Company: "a", Token: "a"},
		{Source: "lever", Company: "b", Token: "b"},
		{Source: "unknown", Company: "c"},
	}
	sum, err := c.Run(context.Background(), targets, Options{Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.ErrorsBySource["lever"])
	assert.Equal(t, 0, sum.Fetched)
}

func TestKeepFilters(t *testing.T) {
	c := newCollector(t, nil, newMemStore())
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	in := []radar.Posting{
		posting("fresh", "Software Engineer", ptrTime(base.AddDate(0, 0, -1))),
		posting("old", "Software Engineer", ptrTime(base.AddDate(0, 0, -10))),
		posting("undated", "Software Engineer", nil),
	}

	kept := c.keep(in, Options{DaysBack: 2})
	require.Len(t, kept, 2)
	assert.Equal(t, "fresh", kept[0].JobID)
	assert.Equal(t, "undated", kept[1].JobID)

	kept = c.keep(in, Options{DaysBack: 2, RequirePostedAt: true})
	require.Len(t, kept, 1)
	assert.Equal(t, "fresh", kept[0].JobID)

	kept = c.keep(in, Options{MaxPerSource: 1})
	assert.Len(t, kept, 1)
}

func TestTargetsFromCatalog(t *testing.T) {
	dir := t.TempDir()
	cat := catalog.New(config.CatalogConfig{
		DataDir:    filepath.Join(dir, "data"),
		MasterFile: filepath.Join(dir, "companies.txt"),
	}, zap.NewNop())
	require.NoError(t, cat.SaveValidTokens("greenhouse", []string{"acme"}))
	require.NoError(t, cat.SaveValidTokens("webscrape", []string{"Globex"}))
	require.NoError(t, writeFile(cat.MappingsPath(), "Globex | https://globex.example/jobs\n"))

	c := New(nil, newMemStore(), filter.New(90), cat, zap.NewNop())
	targets := c.Targets()
	require.Len(t, targets, 2)
	assert.Equal(t, radar.Target{Source: "greenhouse", Company: "acme", Token: "acme"}, targets[0])
	assert.Equal(t, radar.Target{
		Source: "webscrape", Company: "Globex", URL: "https://globex.example/jobs",
	}, targets[1])
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
