package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"jobradar/internal/metrics"
)

// MaxResponseBytes caps how much of any response body is read.
const MaxResponseBytes = 10 << 20

// maxRetryAfter clamps upstream Retry-After hints so a hostile or broken
// header cannot stall a worker for hours.
const maxRetryAfter = 60 * time.Second

// URLChecker vets a URL before any connection is attempted.
type URLChecker interface {
	CheckURL(ctx context.Context, rawURL string) error
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// ClientConfig configures the throttled client.
type ClientConfig struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
}

// Client is the shared outbound HTTP client. Every request passes the
// safety gateway, waits on the per-host throttler, and retries transient
// failures (connection errors, timeouts, 429 and 5xx) with a linear
// backoff, honoring Retry-After. After the retries are spent one
// final attempt runs and its outcome is returned as-is.
type Client struct {
	hc         *http.Client
	guard      URLChecker
	throttler  *Throttler
	userAgent  string
	maxRetries int
	logger     *zap.Logger

	backoff func(attempt int) time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client.
func NewClient(cfg ClientConfig, guard URLChecker, throttler *Throttler, logger *zap.Logger) *Client {
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		hc:         &http.Client{Timeout: timeout},
		guard:      guard,
		throttler:  throttler,
		userAgent:  cfg.UserAgent,
		maxRetries: retries,
		logger:     logger,
		backoff:    linearBackoff,
		sleep:      sleepCtx,
	}
}

// linearBackoff grows with the attempt number and tops out at 30s.
func linearBackoff(attempt int) time.Duration {
	d := time.Duration(2*(attempt+1)) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// Get fetches rawURL and returns the full response.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, "")
}

// GetJSON fetches rawURL, requires a 200 and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode json from %s: %w", rawURL, err)
	}
	return nil
}

// PostJSON sends payload as a JSON body and returns the full response.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode json payload for %s: %w", rawURL, err)
	}
	return c.do(ctx, http.MethodPost, rawURL, body, "application/json")
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, contentType string) (*Response, error) {
	if err := c.guard.CheckURL(ctx, rawURL); err != nil {
		return nil, err
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	host := parsed.Hostname()

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.throttler.Wait(ctx, host); err != nil {
			return nil, err
		}
		resp, err := c.attempt(ctx, method, rawURL, body, contentType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.ObserveFetch(host, "error")
			metrics.ObserveRetry(host)
			c.logger.Debug("request failed; retrying",
				zap.String("url", rawURL), zap.Int("attempt", attempt), zap.Error(err))
			if serr := c.sleep(ctx, c.backoff(attempt)); serr != nil {
				return nil, serr
			}
			continue
		}
		metrics.ObserveFetch(host, strconv.Itoa(resp.StatusCode))
		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		metrics.ObserveRetry(host)
		delay, ok := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		if ok {
			// Push the whole host out, not just this request.
			c.throttler.Defer(host, delay)
		} else {
			delay = c.backoff(attempt)
		}
		c.logger.Debug("retryable status; backing off",
			zap.String("url", rawURL), zap.Int("status", resp.StatusCode), zap.Duration("delay", delay))
		if serr := c.sleep(ctx, delay); serr != nil {
			return nil, serr
		}
	}

	// Final attempt: whatever happens now is the answer.
	if err := c.throttler.Wait(ctx, host); err != nil {
		return nil, err
	}
	resp, err := c.attempt(ctx, method, rawURL, body, contentType)
	if err != nil {
		metrics.ObserveFetch(host, "error")
		return nil, err
	}
	metrics.ObserveFetch(host, strconv.Itoa(resp.StatusCode))
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, method, rawURL string, body []byte, contentType string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", zap.Error(cerr))
		}
	}()
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", rawURL, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: data}, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// parseRetryAfter understands both delta-seconds and HTTP-date forms and
// clamps the result to maxRetryAfter.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return clampRetryAfter(time.Duration(secs) * time.Second), true
	}
	if t, err := http.ParseTime(value); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return clampRetryAfter(d), true
	}
	return 0, false
}

func clampRetryAfter(d time.Duration) time.Duration {
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}
