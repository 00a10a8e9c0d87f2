// Package validate checks which companies from the master list are
// reachable through each ATS, and discovers career pages for the rest.
package validate

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"jobradar/internal/catalog"
	"jobradar/internal/metrics"
)

// TokenFunc probes one token against one ATS and returns whether it is
// usable plus a short reason code.
type TokenFunc func(ctx context.Context, token string) (bool, string)

// Runner fans token validation out over a bounded worker pool, pacing
// requests with a shared rate limiter.
type Runner struct {
	workers int
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRunner builds a Runner. requestsPerSec <= 0 disables pacing.
func NewRunner(workers int, requestsPerSec float64, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}
	return &Runner{workers: workers, limiter: limiter, logger: logger}
}

// Run validates every token and splits them into the valid list (in
// master-list order) and the rejects with reasons.
func (r *Runner) Run(ctx context.Context, source string, tokens []string, fn TokenFunc) ([]string, []catalog.InvalidToken) {
	type outcome struct {
		ok     bool
		reason string
	}
	results := make([]outcome, len(tokens))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := r.limiter.Wait(ctx); err != nil {
					results[i] = outcome{ok: false, reason: "exception"}
					continue
				}
				ok, reason := fn(ctx, tokens[i])
				results[i] = outcome{ok: ok, reason: reason}
				metrics.ObserveValidation(source, reason)
			}
		}()
	}
	for i := range tokens {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	var valid []string
	var invalid []catalog.InvalidToken
	for i, token := range tokens {
		if results[i].ok {
			valid = append(valid, token)
		} else {
			reason := results[i].reason
			if reason == "" {
				reason = "exception"
			}
			invalid = append(invalid, catalog.InvalidToken{Token: token, Reason: reason})
		}
	}
	r.logger.Info("validation finished",
		zap.String("source", source),
		zap.Int("total", len(tokens)),
		zap.Int("valid", len(valid)),
		zap.Int("invalid", len(invalid)))
	return valid, invalid
}
