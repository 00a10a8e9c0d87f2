package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobradar/internal/filter"
	"jobradar/internal/httpx"
)

type allowAllChecker struct{}

func (allowAllChecker) CheckURL(_ context.Context, _ string) error { return nil }

// newTestDeps wires a real client at a zero-interval throttler so tests
// can point connectors at httptest servers.
func newTestDeps(t *testing.T) Deps {
	t.Helper()
	client := httpx.NewClient(httpx.ClientConfig{
		UserAgent:  "jobradar-test",
		Timeout:    5 * time.Second,
		MaxRetries: 0,
	}, allowAllChecker{}, httpx.NewThrottler(0), zap.NewNop())
	return Deps{
		Client: client,
		Filter: filter.New(90),
		Logger: zap.NewNop(),
	}
}

func TestApplyCrawlDelayRaisesFetchedHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nCrawl-delay: 7\n"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	th := httpx.NewThrottler(0)
	client := httpx.NewClient(httpx.ClientConfig{
		UserAgent: "jobradar-test",
		Timeout:   5 * time.Second,
	}, allowAllChecker{}, th, zap.NewNop())
	deps := Deps{
		Client:    client,
		Robots:    httpx.NewRobotsGate(client, "jobradar-test", 0, zap.NewNop()),
		Throttler: th,
		Filter:    filter.New(90),
		Logger:    zap.NewNop(),
	}

	// The endpoint stands in for a delegate ATS host that differs from
	// the mapped career page.
	endpoint := srv.URL + "/api/job/v1/search?company=acme"
	deps.applyCrawlDelay(context.Background(), endpoint)
	require.Equal(t, 7*time.Second, th.HostInterval(hostOf(endpoint)))

	// Without robots or a throttler the helper is a no-op.
	Deps{Throttler: th}.applyCrawlDelay(context.Background(), endpoint)
	Deps{Robots: deps.Robots}.applyCrawlDelay(context.Background(), endpoint)
}
