// Package calendar creates workout events in Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"strava-workout-sync/internal/metrics"
	"strava-workout-sync/internal/middleware"
	"strava-workout-sync/internal/workout"
)

const (
	requestTimeout = 30 * time.Second

	// activityIDProperty is the private extended property carrying the source activity id
	activityIDProperty = "activityId"
)

// EventHandle identifies a calendar event created for a record
type EventHandle struct {
	ID       string
	HTMLLink string
	// Existing is true when the event was already on the calendar
	Existing bool
}

// CalendarWriteError reports that the calendar rejected an event
type CalendarWriteError struct {
	RecordID   string
	ActivityID int64
	Err        error
}

func (e *CalendarWriteError) Error() string {
	return fmt.Sprintf("failed to create calendar event for record %s (activity %d): %v", e.RecordID, e.ActivityID, e.Err)
}

func (e *CalendarWriteError) Unwrap() error {
	return e.Err
}

// Client writes to a single Google calendar
type Client struct {
	svc        *gcal.Service
	calendarID string
	logger     *zap.SugaredLogger
}

// NewClient authenticates with service-account or authorized-user JSON credentials
func NewClient(ctx context.Context, credentialsJSON []byte, calendarID string, logger *zap.SugaredLogger) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &oauth2.Transport{
			Source: creds.TokenSource,
			Base:   middleware.MetricsTransport(metrics.UpstreamCalendar, nil),
		},
	}

	return NewWithOptions(ctx, calendarID, logger, option.WithHTTPClient(httpClient))
}

// NewWithOptions creates a client from explicit API options
func NewWithOptions(ctx context.Context, calendarID string, logger *zap.SugaredLogger, opts ...option.ClientOption) (*Client, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{svc: svc, calendarID: calendarID, logger: logger}, nil
}

// TestConnection fetches the calendar's metadata
func (c *Client) TestConnection(ctx context.Context) bool {
	cal, err := c.svc.Calendars.Get(c.calendarID).Context(ctx).Do()
	if err != nil {
		c.logger.Errorw("Google Calendar connection failed", "calendar_id", c.calendarID, "error", err)
		return false
	}

	c.logger.Infow("Google Calendar connection successful", "calendar", cal.Summary, "timezone", cal.TimeZone)
	return true
}

// CreateEvent creates the event for record. An event already tagged with the
// record's activity id is returned instead of creating a second one.
func (c *Client) CreateEvent(ctx context.Context, record *workout.Record) (EventHandle, error) {
	writeErr := func(err error) error {
		return &CalendarWriteError{RecordID: record.ID, ActivityID: record.ActivityID, Err: err}
	}

	start, err := record.Start()
	if err != nil {
		return EventHandle{}, writeErr(err)
	}

	activityID := strconv.FormatInt(record.ActivityID, 10)

	existing, err := c.svc.Events.List(c.calendarID).
		PrivateExtendedProperty(activityIDProperty + "=" + activityID).
		SingleEvents(true).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return EventHandle{}, writeErr(fmt.Errorf("failed to look up existing event: %w", err))
	}
	if len(existing.Items) > 0 {
		ev := existing.Items[0]
		c.logger.Infow("Calendar event already exists", "event_id", ev.Id, "activity_id", record.ActivityID)
		return EventHandle{ID: ev.Id, HTMLLink: ev.HtmlLink, Existing: true}, nil
	}

	created, err := c.svc.Events.Insert(c.calendarID, NewEvent(record, start)).Context(ctx).Do()
	if err != nil {
		return EventHandle{}, writeErr(err)
	}

	c.logger.Infow("Created calendar event", "event_id", created.Id, "activity_id", record.ActivityID, "title", created.Summary)
	return EventHandle{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}

// NewEvent renders record as an event starting at start
func NewEvent(record *workout.Record, start time.Time) *gcal.Event {
	end := start.Add(time.Duration(max(record.DurationMinutes, 1)) * time.Minute)

	return &gcal.Event{
		Summary:     Title(record),
		Description: Description(record),
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{activityIDProperty: strconv.FormatInt(record.ActivityID, 10)},
		},
	}
}

// Title is "<Type>: <Name>"
func Title(record *workout.Record) string {
	return record.Type + ": " + record.Name
}

// Description lists distance, duration and a link to the activity
func Description(record *workout.Record) string {
	var sb strings.Builder
	if record.DistanceMiles > 0 {
		fmt.Fprintf(&sb, "Distance: %.1f mi\n", record.DistanceMiles)
	}
	fmt.Fprintf(&sb, "Duration: %d min\n", record.DurationMinutes)
	sb.WriteString(record.StravaURL())
	return sb.String()
}
