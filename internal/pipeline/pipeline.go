// Package pipeline runs the two workout pipelines: collecting Strava activities into
// the record store, and creating calendar events from stored records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"strava-workout-sync/internal/calendar"
	"strava-workout-sync/internal/strava"
	"strava-workout-sync/internal/weeks"
	"strava-workout-sync/internal/workout"
)

var (
	// ErrConnection means a pre-flight connection test failed
	ErrConnection = errors.New("connection test failed")
	// ErrInvalidWeek means the week number is outside the calendar year
	ErrInvalidWeek = weeks.ErrInvalidWeek
	// ErrInvalidOption means the range selection mode was not recognised
	ErrInvalidOption = errors.New("invalid option")
	// ErrFetch means the activity list could not be retrieved
	ErrFetch = errors.New("failed to fetch activities")
	// ErrPending means the unprocessed records could not be read
	ErrPending = errors.New("failed to read pending workout records")
	// ErrInput means no answer could be read for a question
	ErrInput = errors.New("failed to read input")
)

// Source lists activities from the fitness service
type Source interface {
	TestConnection(ctx context.Context) bool
	FetchActivities(ctx context.Context, window weeks.Window) ([]strava.Activity, error)
}

// RecordStore persists workout records
type RecordStore interface {
	TestConnection(ctx context.Context) bool
	CreateRecord(ctx context.Context, activity strava.Activity, localStartTime string) (*workout.Record, error)
	FindUnprocessed(ctx context.Context, window weeks.Window) ([]*workout.Record, error)
	MarkCalendarCreated(ctx context.Context, id string) error
}

// Calendar creates events for records
type Calendar interface {
	TestConnection(ctx context.Context) bool
	CreateEvent(ctx context.Context, record *workout.Record) (calendar.EventHandle, error)
}

// ErrorReporter receives per-item failures, e.g. for Sentry
type ErrorReporter func(ctx context.Context, err error, tags map[string]string)

// ItemFailure is a single activity or record that could not be processed
type ItemFailure struct {
	ActivityID int64
	Name       string
	Err        error
}

// Report summarises the items handled by a run
type Report struct {
	Window    weeks.Window
	Attempted int
	Succeeded int
	Skipped   int
	Failed    int
	Failures  []ItemFailure
}

// Result is the outcome of a run
type Result struct {
	RunID  string
	State  string
	Report Report
	Err    error
}

// ExitCode is 1 for failed runs and 0 otherwise, including cancellation
func (r Result) ExitCode() int {
	if r.State == StateFailed {
		return 1
	}
	return 0
}

// console writes the operator-facing report
type console struct {
	w io.Writer
}

func (c console) line(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

func (c console) ok(format string, args ...any)   { c.line("[OK] "+format, args...) }
func (c console) fail(format string, args ...any) { c.line("[FAIL] "+format, args...) }
func (c console) skip(format string, args ...any) { c.line("[SKIP] "+format, args...) }
func (c console) info(format string, args ...any) { c.line("[INFO] "+format, args...) }

// printWeeks shows the first few week labels and the last one
func (c console) printWeeks(year int, labels []weeks.WeekLabel, leading bool) {
	c.line("")
	c.line("Available weeks:")
	if leading {
		c.line("  0 - Week 00 (days before the first Sunday of %d)", year)
	}
	for _, l := range labels[:min(5, len(labels))] {
		c.line("  %d - %s", l.Number, l.Label)
	}
	if len(labels) > 5 {
		c.line("  ...")
		last := labels[len(labels)-1]
		c.line("  %d - %s", last.Number, last.Label)
	}
	c.line("")
}
