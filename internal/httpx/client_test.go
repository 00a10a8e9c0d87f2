package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type allowAll struct{}

func (allowAll) CheckURL(context.Context, string) error { return nil }

type denyAll struct{ err error }

func (d denyAll) CheckURL(context.Context, string) error { return d.err }

func newTestClient(t *testing.T, retries int) (*Client, *[]time.Duration) {
	t.Helper()
	c := NewClient(ClientConfig{
		UserAgent:  "jobradar-test/1.0",
		Timeout:    5 * time.Second,
		MaxRetries: retries,
	}, allowAll{}, NewThrottler(0), zap.NewNop())
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"jobs":[{"id":7}]}`)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, 3)
	var out struct {
		Jobs []struct {
			ID int `json:"id"`
		} `json:"jobs"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	require.Len(t, out.Jobs, 1)
	require.Equal(t, int32(2), calls.Load())
	// First backoff follows the linear schedule.
	require.Equal(t, []time.Duration{2 * time.Second}, *slept)
}

func TestRetryAfterHeaderHonored(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, 2)
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []time.Duration{7 * time.Second}, *slept)
}

func TestFinalAttemptReturnsLastStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, 2)
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	// Two protected attempts plus the final unprotected one.
	require.Equal(t, int32(3), calls.Load())
}

func TestBlockedURLNeverConnects(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	blocked := errors.New("address is not publicly routable")
	c := NewClient(ClientConfig{UserAgent: "t", Timeout: time.Second, MaxRetries: 1},
		denyAll{err: blocked}, NewThrottler(0), zap.NewNop())

	_, err := c.Get(context.Background(), srv.URL)
	require.ErrorIs(t, err, blocked)
	require.Zero(t, calls.Load())
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(20), payload["limit"])
		io.WriteString(w, `{"total":0}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, 1)
	resp, err := c.PostJSON(context.Background(), srv.URL, map[string]any{"limit": 20})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetJSONStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, 1)
	err := c.GetJSON(context.Background(), srv.URL, &struct{}{})
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, http.StatusNotFound, serr.Code)
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	d, ok := parseRetryAfter("5", now)
	require.True(t, ok)
	require.Equal(t, 5*time.Second, d)

	// HTTP-date form, clamped to the 60s ceiling.
	far := now.Add(10 * time.Minute).UTC().Format(http.TimeFormat)
	d, ok = parseRetryAfter(far, now)
	require.True(t, ok)
	require.Equal(t, 60*time.Second, d)

	past := now.Add(-time.Minute).UTC().Format(http.TimeFormat)
	d, ok = parseRetryAfter(past, now)
	require.True(t, ok)
	require.Zero(t, d)

	_, ok = parseRetryAfter("soon", now)
	require.False(t, ok)

	_, ok = parseRetryAfter("", now)
	require.False(t, ok)

	_, ok = parseRetryAfter("-3", now)
	require.False(t, ok)
}
