package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeHost(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, SanitizeHost(tc.input))
		})
	}
}

func TestObserveHelpersUsableWithoutSetup(t *testing.T) {
	// Collectors register at import; no initialization call exists.
	require.NotNil(t, fetchAttemptsTotal)
	require.NotNil(t, blockedURLsTotal)
	require.NotNil(t, postingsMergedTotal)
	require.NotNil(t, validationsTotal)

	ObserveFetch("https://boards.example.com/jobs", "200")
	require.GreaterOrEqual(t, testutil.ToFloat64(fetchAttemptsTotal), float64(1))

	ObserveBlocked("private_address")
	require.GreaterOrEqual(t, testutil.ToFloat64(blockedURLsTotal), float64(1))

	ObserveThrottleWait("example.com", 250*time.Millisecond)
	ObserveMerge("greenhouse", "inserted")
	ObserveValidation("lever", "ok")
}
