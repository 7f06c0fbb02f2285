package notion

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"strava-workout-sync/internal/metrics"
	"strava-workout-sync/internal/strava"
	"strava-workout-sync/internal/weeks"
	"strava-workout-sync/internal/workout"
)

// queryPageSize is the maximum page size accepted by the query endpoint
const queryPageSize = 100

func observe(op string) *prometheus.Timer {
	return prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.StoreNotion, op))
}

func opFailed(op string) {
	metrics.DBOperationErrorsTotal.WithLabelValues(metrics.StoreNotion, op).Inc()
}

// TestConnection retrieves the database and logs its title
func (c *Client) TestConnection(ctx context.Context) bool {
	timer := observe(metrics.DBOpTestConnection)
	defer timer.ObserveDuration()

	var db database
	if err := c.do(ctx, http.MethodGet, "/databases/"+c.databaseID, nil, &db); err != nil {
		opFailed(metrics.DBOpTestConnection)
		c.logger.Errorw("Notion connection failed", "database_id", c.databaseID, "error", err)
		return false
	}

	title := joinText(db.Title)
	if title == "" {
		title = "Workout Database"
	}
	c.logger.Infow("Notion connection successful", "database", title)
	return true
}

// query runs a database query and follows next_cursor until all pages are read
func (c *Client) query(ctx context.Context, body map[string]any) ([]page, error) {
	var pages []page
	for {
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", body, &resp); err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore || resp.NextCursor == nil {
			return pages, nil
		}
		body["start_cursor"] = *resp.NextCursor
	}
}

// FindByActivityID returns the record for an activity, or nil when none exists
func (c *Client) FindByActivityID(ctx context.Context, activityID int64) (*workout.Record, error) {
	timer := observe(metrics.DBOpFindByActivityID)
	defer timer.ObserveDuration()

	var resp queryResponse
	err := c.do(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", map[string]any{
		"filter": map[string]any{
			"property": PropActivityID,
			"number":   map[string]any{"equals": activityID},
		},
		"page_size": 1,
	}, &resp)
	if err != nil {
		opFailed(metrics.DBOpFindByActivityID)
		return nil, fmt.Errorf("failed to query activity %d: %w", activityID, err)
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}
	return pageRecord(resp.Results[0])
}

// CreateRecord creates a page for activity unless one already carries its activity id
func (c *Client) CreateRecord(ctx context.Context, activity strava.Activity, localStartTime string) (*workout.Record, error) {
	record, err := workout.NewRecord(activity, localStartTime)
	if err != nil {
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "create", Err: err}
	}

	existing, err := c.FindByActivityID(ctx, activity.ID)
	if err != nil {
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "check", Err: err}
	}
	if existing != nil {
		return nil, workout.ErrDuplicateActivity
	}

	timer := observe(metrics.DBOpCreateRecord)
	defer timer.ObserveDuration()

	var created page
	err = c.do(ctx, http.MethodPost, "/pages", map[string]any{
		"parent":     map[string]string{"database_id": c.databaseID},
		"properties": recordProperties(record),
	}, &created)
	if err != nil {
		opFailed(metrics.DBOpCreateRecord)
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "create", Err: err}
	}

	record.ID = created.ID
	c.logger.Debugw("Created Notion page", "page_id", created.ID, "activity_id", activity.ID)
	return record, nil
}

// FindUnprocessed returns records dated inside window without a calendar event, ordered by start time
func (c *Client) FindUnprocessed(ctx context.Context, window weeks.Window) ([]*workout.Record, error) {
	timer := observe(metrics.DBOpFindUnprocessed)
	defer timer.ObserveDuration()

	pages, err := c.query(ctx, map[string]any{
		"filter": map[string]any{
			"and": []map[string]any{
				{"property": PropDate, "date": map[string]string{"on_or_after": window.Start.Format(time.DateOnly)}},
				{"property": PropDate, "date": map[string]string{"on_or_before": window.End.Format(time.DateOnly)}},
				{"property": PropCalendarCreated, "checkbox": map[string]bool{"equals": false}},
			},
		},
		"sorts":     []map[string]string{{"property": PropDate, "direction": "ascending"}},
		"page_size": queryPageSize,
	})
	if err != nil {
		opFailed(metrics.DBOpFindUnprocessed)
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}

	records := make([]*workout.Record, 0, len(pages))
	for _, p := range pages {
		record, err := pageRecord(p)
		if err != nil {
			c.logger.Warnw("Skipping malformed workout page", "page_id", p.ID, "error", err)
			continue
		}
		records = append(records, record)
	}

	slices.SortStableFunc(records, func(a, b *workout.Record) int {
		at, aErr := a.Start()
		bt, bErr := b.Start()
		if aErr != nil || bErr != nil {
			return cmp.Compare(a.StartTimeLocal, b.StartTimeLocal)
		}
		return at.Compare(bt)
	})

	c.logger.Infow("Found workouts without calendar events", "count", len(records), "window", window.String())
	return records, nil
}

// MarkCalendarCreated ticks the Calendar Created checkbox on a page
func (c *Client) MarkCalendarCreated(ctx context.Context, id string) error {
	timer := observe(metrics.DBOpMarkCalendarCreated)
	defer timer.ObserveDuration()

	err := c.do(ctx, http.MethodPatch, "/pages/"+id, map[string]any{
		"properties": map[string]property{
			PropCalendarCreated: {Checkbox: checkbox(true)},
		},
	}, nil)
	if err != nil {
		opFailed(metrics.DBOpMarkCalendarCreated)
		return fmt.Errorf("failed to mark page %s: %w", id, err)
	}
	return nil
}
