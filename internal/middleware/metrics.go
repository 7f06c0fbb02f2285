package middleware

import (
	"net/http"
	"strconv"
	"time"

	"strava-workout-sync/internal/metrics"
)

// statusTransportError is the status_code label used when no response was received
const statusTransportError = "error"

// roundTripper wraps an http.RoundTripper to record upstream request metrics
type roundTripper struct {
	upstream string
	next     http.RoundTripper
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := rt.next.RoundTrip(req)

	// Record metrics
	duration := time.Since(start).Seconds()
	statusStr := statusTransportError
	if err == nil {
		statusStr = strconv.Itoa(resp.StatusCode)
	}
	metrics.APIRequestsTotal.WithLabelValues(rt.upstream, req.Method, statusStr).Inc()
	metrics.APIRequestDuration.WithLabelValues(rt.upstream, req.Method, statusStr).Observe(duration)

	return resp, err
}

// MetricsTransport wraps next with Prometheus request metrics for upstream.
// A nil next uses http.DefaultTransport.
func MetricsTransport(upstream string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &roundTripper{upstream: upstream, next: next}
}

// WrapClient is a convenience function returning an *http.Client whose transport records metrics
func WrapClient(upstream string, timeout time.Duration, next http.RoundTripper) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: MetricsTransport(upstream, next),
	}
}
