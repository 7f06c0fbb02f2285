package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"strava-workout-sync/internal/metrics"
	"strava-workout-sync/internal/prompt"
	"strava-workout-sync/internal/strava"
	"strava-workout-sync/internal/weeks"
	"strava-workout-sync/internal/workout"
)

// Range selection modes
const (
	ModeExplicitDate = "1"
	ModeWeekNumber   = "2"
	ModeWeekOfDate   = "3"
)

// CollectorConfig holds the collaborators of a Collector
type CollectorConfig struct {
	Source      Source
	Store       RecordStore
	Input       prompt.Input
	Out         io.Writer
	Logger      *zap.SugaredLogger
	Location    *time.Location
	Year        int
	ReportError ErrorReporter
}

// Collector fetches activities for a selected range and saves them as workout records
type Collector struct {
	source      Source
	store       RecordStore
	input       prompt.Input
	out         console
	logger      *zap.SugaredLogger
	location    *time.Location
	year        int
	reportError ErrorReporter
}

// NewCollector creates a collector. A nil Location means UTC and a nil Out discards the report.
func NewCollector(cfg CollectorConfig) *Collector {
	c := &Collector{
		source:      cfg.Source,
		store:       cfg.Store,
		input:       cfg.Input,
		out:         console{w: cfg.Out},
		logger:      cfg.Logger,
		location:    cfg.Location,
		year:        cfg.Year,
		reportError: cfg.ReportError,
	}
	if c.out.w == nil {
		c.out.w = io.Discard
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	if c.location == nil {
		c.location = time.UTC
	}
	if c.reportError == nil {
		c.reportError = func(context.Context, error, map[string]string) {}
	}
	return c
}

// Run executes one collection run
func (c *Collector) Run(ctx context.Context) Result {
	runID := uuid.NewString()
	log := c.logger.With("run_id", runID, "pipeline", metrics.PipelineCollect)
	m := newMachine(metrics.PipelineCollect, collectorEvents, log)

	start := time.Now()
	result := c.run(ctx, m, log, runID)
	result.RunID = runID
	result.State = m.current()

	metrics.RunsTotal.WithLabelValues(metrics.PipelineCollect, result.State).Inc()
	metrics.RunDuration.WithLabelValues(metrics.PipelineCollect, result.State).Observe(time.Since(start).Seconds())
	log.Infow("Run finished", "state", result.State, "saved", result.Report.Succeeded, "attempted", result.Report.Attempted, "duration", time.Since(start))
	return result
}

func (c *Collector) run(ctx context.Context, m *machine, log *zap.SugaredLogger, runID string) Result {
	var report Report

	fail := func(err error) Result {
		c.out.fail("%v", err)
		log.Errorw("Run failed", "state", m.current(), "error", err)
		if ferr := m.fire(ctx, EventFail); ferr != nil {
			log.Errorw("Failed to record failure state", "error", ferr)
		}
		return Result{Report: report, Err: err}
	}
	advance := func(event string) {
		if err := m.fire(ctx, event); err != nil {
			log.Errorw("Invalid state transition", "error", err)
		}
	}

	c.out.line("Strava Workout Collector %d", c.year)
	c.out.line("")
	if err := preflight(ctx, c.out, log, check{"Strava", c.source}, check{"Record store", c.store}); err != nil {
		return fail(err)
	}

	window, label, err := c.selectRange(ctx)
	if err != nil {
		return fail(err)
	}
	report.Window = window
	advance(EventRangeSelected)

	c.out.line("")
	c.out.info("Collecting workout data for %s", label)
	c.out.info("Date range: %s", window)
	answer, err := c.input.Ask(ctx, prompt.Question{
		Key:  prompt.KeyConfirm,
		Text: "Proceed with collecting workout data for this period? (y/n):",
	})
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrInput, err))
	}
	if !isYes(answer) {
		c.out.info("Operation cancelled")
		log.Infow("Run cancelled by operator")
		advance(EventCancel)
		return Result{Report: report}
	}
	advance(EventConfirm)

	activities, err := c.source.FetchActivities(ctx, window)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrFetch, err))
	}
	metrics.ActivitiesFetchedTotal.Add(float64(len(activities)))

	if len(activities) == 0 {
		c.out.info("No activities found for this period")
		advance(EventReport)
		c.printReport(report)
		advance(EventFinish)
		return Result{Report: report}
	}

	c.out.info("Found %d workout sessions", len(activities))
	c.out.line("")
	advance(EventSave)

	for _, activity := range activities {
		c.save(ctx, log, runID, activity, &report)
	}

	advance(EventReport)
	c.printReport(report)
	advance(EventFinish)
	return Result{Report: report}
}

// selectRange asks for the mode and then for a date or week. Invalid dates are
// asked again without limit; an invalid week or mode ends the run.
func (c *Collector) selectRange(ctx context.Context) (weeks.Window, string, error) {
	c.out.line("")
	c.out.line("Choose your selection method:")
	c.out.line("  1. Enter a specific date (DD-MM-YY format)")
	c.out.line("  2. Select by week number")
	c.out.line("  3. Enter a date and collect its whole week")

	mode, err := c.input.Ask(ctx, prompt.Question{Key: prompt.KeyMode, Text: "Choose option (1, 2 or 3):"})
	if err != nil {
		return weeks.Window{}, "", fmt.Errorf("%w: %w", ErrInput, err)
	}

	switch strings.TrimSpace(mode) {
	case ModeExplicitDate:
		date, err := c.askDate(ctx)
		if err != nil {
			return weeks.Window{}, "", err
		}
		return weeks.DayWindow(date), "date " + date.Format("Mon Jan 2 2006"), nil

	case ModeWeekNumber:
		window, week, err := askWeek(ctx, c.input, c.out, c.year, c.location, "Which week to collect? (enter week number):")
		if err != nil {
			return weeks.Window{}, "", err
		}
		return window, fmt.Sprintf("week %d", week), nil

	case ModeWeekOfDate:
		date, err := c.askDate(ctx)
		if err != nil {
			return weeks.Window{}, "", err
		}
		label := "the week of " + date.Format("Mon Jan 2 2006")
		if week, ok := weeks.WeekNumber(c.year, date); ok {
			label = fmt.Sprintf("week %d (%s)", week, label)
		}
		return weeks.WeekContaining(date), label, nil

	default:
		return weeks.Window{}, "", fmt.Errorf("%w %q, choose 1, 2 or 3", ErrInvalidOption, mode)
	}
}

// askDate reads DD-MM-YY dates until one parses
func (c *Collector) askDate(ctx context.Context) (time.Time, error) {
	for {
		text, err := c.input.Ask(ctx, prompt.Question{
			Key:  prompt.KeyDate,
			Text: "Enter date in DD-MM-YY format (e.g., 15-03-25):",
		})
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", ErrInput, err)
		}

		date, err := weeks.ParseExplicitDate(strings.TrimSpace(text), c.location)
		if err != nil {
			c.out.fail("%v", err)
			continue
		}
		return date, nil
	}
}

func (c *Collector) save(ctx context.Context, log *zap.SugaredLogger, runID string, activity strava.Activity, report *Report) {
	report.Attempted++

	local := workout.LocalStartTime(activity, c.location)
	record, err := c.store.CreateRecord(ctx, activity, local)

	switch {
	case errors.Is(err, workout.ErrDuplicateActivity):
		report.Skipped++
		metrics.RecordsProcessedTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		c.out.skip("%s already saved (activity %d)", activity.Name, activity.ID)
		log.Infow("Skipped existing workout record", "activity_id", activity.ID)

	case err != nil:
		report.Failed++
		report.Failures = append(report.Failures, ItemFailure{ActivityID: activity.ID, Name: activity.Name, Err: err})
		metrics.RecordsProcessedTotal.WithLabelValues(metrics.ResultFailure).Inc()
		c.out.fail("Failed to save %s: %v", activity.Name, err)
		log.Errorw("Failed to save workout record", "activity_id", activity.ID, "name", activity.Name, "error", err)
		c.reportError(ctx, err, map[string]string{
			"pipeline":    metrics.PipelineCollect,
			"run_id":      runID,
			"activity_id": strconv.FormatInt(activity.ID, 10),
		})

	default:
		report.Succeeded++
		metrics.RecordsProcessedTotal.WithLabelValues(metrics.ResultSaved).Inc()
		c.out.ok("Saved %s: %s | %s", record.Name, record.Type, formatKilometers(activity.Distance))
		log.Infow("Saved workout record", "activity_id", activity.ID, "record_id", record.ID, "start_local", local)
	}
}

func (c *Collector) printReport(report Report) {
	c.out.line("")
	c.out.ok("Saved %d/%d workout sessions", report.Succeeded, report.Attempted)
	if report.Skipped > 0 {
		c.out.skip("%d already saved", report.Skipped)
	}
	if report.Failed > 0 {
		c.out.fail("%d failed", report.Failed)
	}
	if report.Succeeded > 0 {
		c.out.info("Next: run create-calendar-events to add them to your calendar")
	}
}

type check struct {
	name   string
	target interface{ TestConnection(context.Context) bool }
}

// preflight tests every connection and fails if any is down
func preflight(ctx context.Context, out console, log *zap.SugaredLogger, checks ...check) error {
	out.info("Testing connections...")

	var failed []string
	for _, ch := range checks {
		if ch.target.TestConnection(ctx) {
			out.ok("%s connection successful", ch.name)
			continue
		}
		out.fail("%s connection failed", ch.name)
		failed = append(failed, ch.name)
	}

	if len(failed) > 0 {
		log.Errorw("Pre-flight connection test failed", "failed", failed)
		return fmt.Errorf("%w: %s; check your environment configuration", ErrConnection, strings.Join(failed, ", "))
	}
	return nil
}

// askWeek shows the week list and reads a week number
func askWeek(ctx context.Context, input prompt.Input, out console, year int, loc *time.Location, text string) (weeks.Window, int, error) {
	_, leading := weeks.LeadingWeek(year, loc)
	out.printWeeks(year, slices.Collect(weeks.WeekLabels(year, loc)), leading)

	answer, err := input.Ask(ctx, prompt.Question{Key: prompt.KeyWeek, Text: text})
	if err != nil {
		return weeks.Window{}, 0, fmt.Errorf("%w: %w", ErrInput, err)
	}

	week, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return weeks.Window{}, 0, fmt.Errorf("%w: %q", ErrInvalidWeek, answer)
	}
	if err := weeks.ValidateWeekNumber(year, week, loc); err != nil {
		return weeks.Window{}, 0, err
	}
	return weeks.WeekBoundaries(year, week, loc), week, nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// formatKilometers prints N/A for activities that are not distance based, which
// Strava reports either without a distance or with a distance of zero
func formatKilometers(meters *float64) string {
	if meters == nil || *meters == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2fkm", *meters/1000)
}
