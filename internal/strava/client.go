package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"strava-workout-sync/internal/metrics"
	"strava-workout-sync/internal/middleware"
)

const (
	defaultBaseURL = "https://www.strava.com/api/v3"
	requestTimeout = 30 * time.Second
)

// Client is a Strava API client authenticated with a pre-provisioned access token
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      *zap.SugaredLogger
	rateLimiter *RateLimiter
}

// NewClient creates a new Strava API client for a pre-provisioned access token
func NewClient(accessToken string, logger *zap.SugaredLogger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &oauth2.Transport{
				Source: src,
				Base:   middleware.MetricsTransport(metrics.UpstreamStrava, nil),
			},
		},
		baseURL:     defaultBaseURL,
		logger:      logger,
		rateLimiter: NewRateLimiter(),
	}
}

// SetBaseURL sets the API base URL (for testing)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

// HTTPError represents an HTTP error response from Strava
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("strava API error (HTTP %d): %s", e.StatusCode, e.Body)
}

// IsNotFound returns true if the error is a 404
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized
}

// IsTooManyRequests returns true if the error is a 429
func IsTooManyRequests(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests
}

// Athlete is the authenticated athlete's profile
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Athlete fetches the profile of the athlete that owns the access token
func (c *Client) Athlete(ctx context.Context) (*Athlete, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/athlete")
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}

	var athlete Athlete
	if err := json.Unmarshal(body, &athlete); err != nil {
		return nil, fmt.Errorf("failed to decode athlete: %w", err)
	}
	return &athlete, nil
}

// TestConnection checks that the access token is accepted. It never returns an error.
func (c *Client) TestConnection(ctx context.Context) bool {
	athlete, err := c.Athlete(ctx)
	if err != nil {
		c.logger.Errorw("Strava connection failed", "error", err)
		return false
	}

	c.logger.Infow("Strava connection successful",
		"athlete_id", athlete.ID,
		"athlete", strings.TrimSpace(athlete.FirstName+" "+athlete.LastName))
	return true
}

// doRequest performs an authenticated GET-style request and returns the body of a 200 response.
// There is no retry; callers isolate failures per item.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Errorw("request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.updateRateLimits(resp)

	c.logger.Debugw("strava_api_request", "method", method, "path", path, "status", resp.StatusCode, "duration_ms", duration.Milliseconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// updateRateLimits extracts rate limit information from response headers.
// Strava sends "15min,daily" pairs for overall and read-only limits.
func (c *Client) updateRateLimits(resp *http.Response) {
	if limit15, limitDaily, ok := parsePair(resp.Header.Get("X-RateLimit-Limit")); ok {
		if usage15, usageDaily, ok := parsePair(resp.Header.Get("X-RateLimit-Usage")); ok {
			c.rateLimiter.Update(limit15, usage15, limitDaily, usageDaily)
		}
	}

	if limit15, limitDaily, ok := parsePair(resp.Header.Get("X-ReadRateLimit-Limit")); ok {
		if usage15, usageDaily, ok := parsePair(resp.Header.Get("X-ReadRateLimit-Usage")); ok {
			c.rateLimiter.UpdateRead(limit15, usage15, limitDaily, usageDaily)
		}
	}

	status := c.rateLimiter.Status()
	if !status.LastUpdated.IsZero() {
		c.logger.Debugw("rate_limit",
			"limit_15min", status.Limit15Min,
			"usage_15min", status.Usage15Min,
			"limit_daily", status.LimitDaily,
			"usage_daily", status.UsageDaily,
			"usage_15min_pct", status.Usage15MinPct,
			"usage_daily_pct", status.UsageDailyPct,
		)
	}
}

func parsePair(header string) (int, int, bool) {
	if header == "" {
		return 0, 0, false
	}
	parts := strings.Split(header, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// GetRateLimitStatus returns the current rate limit status
func (c *Client) GetRateLimitStatus() RateLimitStatus {
	return c.rateLimiter.Status()
}
