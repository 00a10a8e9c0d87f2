// Package metrics exposes Prometheus collectors for the jobradar
// pipeline. Collectors are registered at import time, so the Observe
// helpers are always safe to call.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobradar_fetch_attempts_total",
			Help: "Total number of HTTP fetch attempts, labeled by host and status.",
		},
		[]string{"host", "status"},
	)

	fetchRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobradar_fetch_retries_total",
			Help: "Total number of retried fetch attempts, labeled by host.",
		},
		[]string{"host"},
	)

	blockedURLsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobradar_blocked_urls_total",
			Help: "Total number of URLs refused by the safety gateway, labeled by reason.",
		},
		[]string{"reason"},
	)

	robotsDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobradar_robots_denials_total",
			Help: "Total number of fetches denied by robots.txt, labeled by host.",
		},
		[]string{"host"},
	)

	throttleWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobradar_throttle_wait_seconds",
			Help:    "Histogram of per-host throttle wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"host"},
	)

	postingsMergedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobradar_postings_merged_total",
			Help: "Total number of postings merged into the store, labeled by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	connectorErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobradar_connector_errors_total",
			Help: "Total number of connector task failures, labeled by source.",
		},
		[]string{"source"},
	)

	validationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobradar_validations_total",
			Help: "Total number of token validations, labeled by source and reason.",
		},
		[]string{"source", "reason"},
	)
)

// SanitizeHost reduces a URL or host string to a lowercase hostname.
// It returns "unknown" if the value cannot be parsed.
func SanitizeHost(raw string) string {
	if raw == "" {
		return "unknown"
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt outcome.
func ObserveFetch(host, status string) {
	fetchAttemptsTotal.WithLabelValues(SanitizeHost(host), status).Inc()
}

// ObserveRetry records one retried attempt.
func ObserveRetry(host string) {
	fetchRetriesTotal.WithLabelValues(SanitizeHost(host)).Inc()
}

// ObserveBlocked records a URL refused by the safety gateway.
func ObserveBlocked(reason string) {
	blockedURLsTotal.WithLabelValues(reason).Inc()
}

// ObserveRobotsDenial records a robots.txt denial.
func ObserveRobotsDenial(host string) {
	robotsDenialsTotal.WithLabelValues(SanitizeHost(host)).Inc()
}

// ObserveThrottleWait records the duration spent waiting on the per-host pacer.
func ObserveThrottleWait(host string, d time.Duration) {
	throttleWaitSeconds.WithLabelValues(SanitizeHost(host)).Observe(d.Seconds())
}

// ObserveMerge records one store merge outcome ("inserted" or "updated").
func ObserveMerge(source, outcome string) {
	postingsMergedTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveConnectorError records a failed connector task.
func ObserveConnectorError(source string) {
	connectorErrorsTotal.WithLabelValues(source).Inc()
}

// ObserveValidation records one validation result.
func ObserveValidation(source, reason string) {
	validationsTotal.WithLabelValues(source, reason).Inc()
}
