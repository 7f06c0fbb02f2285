// Package notion is the record store backend for a Notion database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"strava-workout-sync/internal/metrics"
	"strava-workout-sync/internal/middleware"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	notionVersion  = "2022-06-28"
	requestTimeout = 30 * time.Second
)

// Client talks to the Notion REST API for a single database
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	databaseID string
	logger     *zap.SugaredLogger
}

// NewClient creates a Notion client for databaseID
func NewClient(token, databaseID string, logger *zap.SugaredLogger) *Client {
	return &Client{
		httpClient: middleware.WrapClient(metrics.UpstreamNotion, requestTimeout, nil),
		baseURL:    defaultBaseURL,
		token:      token,
		databaseID: databaseID,
		logger:     logger,
	}
}

// SetBaseURL sets the API base URL (for testing)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

// APIError is an error response from the Notion API
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion API error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("notion API error (HTTP %d, %s): %s", e.StatusCode, e.Code, e.Message)
}

// do sends in as a JSON body (when non-nil) and decodes a 200 response into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debugw("notion_api_request", "method", method, "path", path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(data)
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
