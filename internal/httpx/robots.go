package httpx

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"jobradar/internal/metrics"
)

// RobotsGate answers robots.txt questions per host. Robots files are
// fetched through the throttled client so robots probes obey the same
// safety and pacing rules as everything else. A host whose robots file
// cannot be fetched is treated as allow-all.
type RobotsGate struct {
	client    *Client
	userAgent string
	minDelay  time.Duration
	logger    *zap.Logger
	cache     sync.Map // host -> *robotstxt.RobotsData (nil means allow-all)
}

// NewRobotsGate builds a RobotsGate. minDelay is the pacing floor that
// CrawlDelay never goes below.
func NewRobotsGate(client *Client, userAgent string, minDelay time.Duration, logger *zap.Logger) *RobotsGate {
	return &RobotsGate{
		client:    client,
		userAgent: userAgent,
		minDelay:  minDelay,
		logger:    logger,
	}
}

// Allowed reports whether the user agent may fetch rawURL.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	data := g.load(ctx, parsed)
	if data == nil {
		return true
	}
	group := data.FindGroup(g.userAgent)
	if group == nil {
		return true
	}
	allowed := group.Test(parsed.Path)
	if !allowed {
		metrics.ObserveRobotsDenial(parsed.Host)
	}
	return allowed
}

// CrawlDelay returns the effective delay for the host: the larger of the
// robots.txt crawl-delay and the configured floor.
func (g *RobotsGate) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return g.minDelay
	}
	data := g.load(ctx, parsed)
	if data == nil {
		return g.minDelay
	}
	group := data.FindGroup(g.userAgent)
	if group == nil || group.CrawlDelay <= g.minDelay {
		return g.minDelay
	}
	return group.CrawlDelay
}

func (g *RobotsGate) load(ctx context.Context, parsed *url.URL) *robotstxt.RobotsData {
	hostKey := strings.ToLower(parsed.Host)
	if cached, ok := g.cache.Load(hostKey); ok {
		data, _ := cached.(*robotstxt.RobotsData)
		return data
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)
	resp, err := g.client.Get(ctx, robotsURL)
	if err != nil {
		// Transport failures are not cached; a later fetch may succeed.
		g.logger.Debug("robots fetch failed; allowing access",
			zap.String("host", parsed.Host), zap.Error(err))
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		g.logger.Debug("robots parse failed; allowing access",
			zap.String("host", parsed.Host), zap.Error(err))
		g.cache.Store(hostKey, (*robotstxt.RobotsData)(nil))
		return nil
	}
	g.cache.Store(hostKey, data)
	return data
}
