// Package httpx provides the shared outbound HTTP layer: a per-host
// throttler, a retrying client that routes every request through the
// safety gateway, and a robots.txt gate.
package httpx

import (
	"context"
	"sync"
	"time"

	"jobradar/internal/metrics"
)

// Throttler paces requests per host. Each host has a next-allowed time;
// Wait blocks until that time and pushes it forward by the minimum
// interval. Defer pushes a host's schedule out further, for example when
// an upstream answers with Retry-After.
type Throttler struct {
	mu           sync.Mutex
	next         map[string]time.Time
	minInterval  time.Duration
	hostInterval map[string]time.Duration

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewThrottler builds a Throttler with the given per-host floor.
func NewThrottler(minInterval time.Duration) *Throttler {
	return &Throttler{
		next:         make(map[string]time.Time),
		minInterval:  minInterval,
		hostInterval: make(map[string]time.Duration),
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

// RaiseHostInterval widens the pacing interval for one host, typically
// to honor a robots.txt crawl-delay. It never narrows the interval.
func (t *Throttler) RaiseHostInterval(host string, d time.Duration) {
	if d <= t.minInterval {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.hostInterval[host]; !ok || d > cur {
		t.hostInterval[host] = d
	}
}

// HostInterval reports the effective pacing interval for a host.
func (t *Throttler) HostInterval(host string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if hi, ok := t.hostInterval[host]; ok && hi > t.minInterval {
		return hi
	}
	return t.minInterval
}

// Wait blocks until the host's next-allowed time, then reserves the next
// slot. It returns early with the context error on cancellation.
func (t *Throttler) Wait(ctx context.Context, host string) error {
	t.mu.Lock()
	interval := t.minInterval
	if hi, ok := t.hostInterval[host]; ok && hi > interval {
		interval = hi
	}
	now := t.now()
	start := now
	if na, ok := t.next[host]; ok && na.After(now) {
		start = na
	}
	t.next[host] = start.Add(interval)
	t.mu.Unlock()

	delay := start.Sub(now)
	if delay <= 0 {
		return nil
	}
	metrics.ObserveThrottleWait(host, delay)
	return t.sleep(ctx, delay)
}

// Defer pushes the host's next-allowed time at least d into the future.
// It never moves the schedule earlier.
func (t *Throttler) Defer(host string, d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	candidate := t.now().Add(d)
	if na, ok := t.next[host]; !ok || candidate.After(na) {
		t.next[host] = candidate
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
