package httpx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock drives a Throttler deterministically.
type fakeClock struct {
	now     time.Time
	slept   []time.Duration
	advance bool
}

func (c *fakeClock) wire(t *Throttler) {
	t.now = func() time.Time { return c.now }
	t.sleep = func(_ context.Context, d time.Duration) error {
		c.slept = append(c.slept, d)
		if c.advance {
			c.now = c.now.Add(d)
		}
		return nil
	}
}

func TestThrottlerWaitSpacesRequests(t *testing.T) {
	t.Parallel()

	th := NewThrottler(time.Second)
	clk := &fakeClock{now: time.Unix(1000, 0), advance: true}
	clk.wire(th)

	ctx := context.Background()
	require.NoError(t, th.Wait(ctx, "a.example.com"))
	require.Empty(t, clk.slept, "first request should not wait")

	require.NoError(t, th.Wait(ctx, "a.example.com"))
	require.Equal(t, []time.Duration{time.Second}, clk.slept)

	// A different host has its own schedule.
	require.NoError(t, th.Wait(ctx, "b.example.com"))
	require.Len(t, clk.slept, 1)
}

func TestThrottlerHostInterval(t *testing.T) {
	t.Parallel()

	th := NewThrottler(time.Second)
	require.Equal(t, time.Second, th.HostInterval("a.example.com"))

	th.RaiseHostInterval("a.example.com", 5*time.Second)
	require.Equal(t, 5*time.Second, th.HostInterval("a.example.com"))

	// Raising never narrows.
	th.RaiseHostInterval("a.example.com", 2*time.Second)
	require.Equal(t, 5*time.Second, th.HostInterval("a.example.com"))
	require.Equal(t, time.Second, th.HostInterval("b.example.com"))
}

func TestThrottlerDefer(t *testing.T) {
	t.Parallel()

	th := NewThrottler(500 * time.Millisecond)
	clk := &fakeClock{now: time.Unix(2000, 0)}
	clk.wire(th)

	th.Defer("a.example.com", 5*time.Second)
	require.NoError(t, th.Wait(context.Background(), "a.example.com"))
	require.Equal(t, []time.Duration{5 * time.Second}, clk.slept)

	// Defer never moves a schedule earlier.
	th.Defer("a.example.com", time.Second)
	clk.slept = nil
	require.NoError(t, th.Wait(context.Background(), "a.example.com"))
	require.Len(t, clk.slept, 1)
	require.Greater(t, clk.slept[0], 5*time.Second)
}

func TestThrottlerWaitCancel(t *testing.T) {
	t.Parallel()

	th := NewThrottler(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, th.Wait(ctx, "slow.example.com"))
	cancel()
	err := th.Wait(ctx, "slow.example.com")
	require.ErrorIs(t, err, context.Canceled)
}
