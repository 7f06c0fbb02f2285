package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"strava-workout-sync/internal/weeks"
)

const (
	// activitiesPerPage is the page size used by FetchActivities
	activitiesPerPage = 50
	// maxPages bounds a single FetchActivities call
	maxPages = 20
	// nearLimitPct is the rate-limit usage that triggers a warning
	nearLimitPct = 90
)

// Activity is a summary activity as returned by the list endpoint
type Activity struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	SportType  string    `json:"sport_type"`
	StartDate  time.Time `json:"start_date"`
	Distance   *float64  `json:"distance,omitempty"` // meters, nil when not distance based
	MovingTime int       `json:"moving_time"`        // seconds
}

// FetchError reports that the activity list could not be retrieved. It is
// distinct from a successful fetch that returned no activities.
type FetchError struct {
	After  int64
	Before int64
	Page   int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch activities (after=%d before=%d page=%d): %v", e.After, e.Before, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseActivitiesSummary parses a list of activity summaries
func ParseActivitiesSummary(data []byte) ([]Activity, error) {
	var activities []Activity
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activities: %w", err)
	}
	return activities, nil
}

// FetchActivities lists all activities that started inside window.
// Window bounds are sent as epoch seconds. Pages of activitiesPerPage are
// requested until a short page is returned.
func (c *Client) FetchActivities(ctx context.Context, window weeks.Window) ([]Activity, error) {
	after := window.Start.Unix()
	before := window.End.Unix()

	c.logger.Infow("Fetching activities",
		"from", window.Start.Format(time.DateOnly),
		"to", window.End.Format(time.DateOnly),
		"after", after,
		"before", before)

	var all []Activity
	for page := 1; page <= maxPages; page++ {
		params := url.Values{
			"after":    {strconv.FormatInt(after, 10)},
			"before":   {strconv.FormatInt(before, 10)},
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(activitiesPerPage)},
		}

		body, err := c.doRequest(ctx, "GET", "/athlete/activities?"+params.Encode())
		if err != nil {
			return nil, &FetchError{After: after, Before: before, Page: page, Err: err}
		}

		activities, err := ParseActivitiesSummary(body)
		if err != nil {
			return nil, &FetchError{After: after, Before: before, Page: page, Err: err}
		}

		all = append(all, activities...)

		if len(activities) < activitiesPerPage {
			break
		}
		if page == maxPages {
			c.logger.Warnw("Activity list truncated", "pages", maxPages, "count", len(all))
		}
		if c.rateLimiter.IsNearLimit(nearLimitPct) {
			c.logger.Warnw("Approaching Strava rate limit", "status", c.rateLimiter.Status())
		}
	}

	c.logger.Infow("Found activities", "count", len(all))
	return all, nil
}
