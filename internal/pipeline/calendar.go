package pipeline

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"strava-workout-sync/internal/metrics"
	"strava-workout-sync/internal/prompt"
	"strava-workout-sync/internal/workout"
)

// CalendarSyncConfig holds the collaborators of a CalendarSync
type CalendarSyncConfig struct {
	Store       RecordStore
	Calendar    Calendar
	Input       prompt.Input
	Out         io.Writer
	Logger      *zap.SugaredLogger
	Location    *time.Location
	Year        int
	ReportError ErrorReporter
}

// CalendarSync creates calendar events for the unprocessed records of a week
type CalendarSync struct {
	store       RecordStore
	calendar    Calendar
	input       prompt.Input
	out         console
	logger      *zap.SugaredLogger
	location    *time.Location
	year        int
	reportError ErrorReporter
}

// NewCalendarSync creates a calendar run. Defaults match NewCollector.
func NewCalendarSync(cfg CalendarSyncConfig) *CalendarSync {
	s := &CalendarSync{
		store:       cfg.Store,
		calendar:    cfg.Calendar,
		input:       cfg.Input,
		out:         console{w: cfg.Out},
		logger:      cfg.Logger,
		location:    cfg.Location,
		year:        cfg.Year,
		reportError: cfg.ReportError,
	}
	if s.out.w == nil {
		s.out.w = io.Discard
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.reportError == nil {
		s.reportError = func(context.Context, error, map[string]string) {}
	}
	return s
}

// Run executes one calendar run
func (s *CalendarSync) Run(ctx context.Context) Result {
	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "pipeline", metrics.PipelineCalendar)
	m := newMachine(metrics.PipelineCalendar, calendarEvents, log)

	start := time.Now()
	result := s.run(ctx, m, log, runID)
	result.RunID = runID
	result.State = m.current()

	metrics.RunsTotal.WithLabelValues(metrics.PipelineCalendar, result.State).Inc()
	metrics.RunDuration.WithLabelValues(metrics.PipelineCalendar, result.State).Observe(time.Since(start).Seconds())
	log.Infow("Run finished", "state", result.State, "created", result.Report.Succeeded, "attempted", result.Report.Attempted, "duration", time.Since(start))
	return result
}

func (s *CalendarSync) run(ctx context.Context, m *machine, log *zap.SugaredLogger, runID string) Result {
	var report Report

	fail := func(err error) Result {
		s.out.fail("%v", err)
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

	s.out.line("Calendar Event Creator %d", s.year)
	s.out.line("")
	if err := preflight(ctx, s.out, log, check{"Record store", s.store}, check{"Google Calendar", s.calendar}); err != nil {
		return fail(err)
	}

	window, week, err := askWeek(ctx, s.input, s.out, s.year, s.location, "Which week to create calendar events? (enter week number):")
	if err != nil {
		return fail(err)
	}
	report.Window = window
	advance(EventRangeSelected)

	s.out.line("")
	s.out.info("Creating calendar events for week %d", week)
	s.out.info("Date range: %s", window)

	records, err := s.store.FindUnprocessed(ctx, window)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrPending, err))
	}
	metrics.PendingRecords.Set(float64(len(records)))

	if len(records) == 0 {
		s.out.info("No workouts found without calendar events for this week")
		s.out.info("Try running collect-workouts first to gather workout data")
		advance(EventReport)
		s.printReport(report)
		advance(EventFinish)
		return Result{Report: report}
	}

	s.out.line("")
	advance(EventCreateEvents)

	for _, record := range records {
		s.createEvent(ctx, log, runID, record, &report)
	}

	advance(EventReport)
	s.printReport(report)
	advance(EventFinish)
	return Result{Report: report}
}

// createEvent creates one event and only then marks the record processed
func (s *CalendarSync) createEvent(ctx context.Context, log *zap.SugaredLogger, runID string, record *workout.Record, report *Report) {
	report.Attempted++

	itemFailed := func(err error) {
		report.Failed++
		report.Failures = append(report.Failures, ItemFailure{ActivityID: record.ActivityID, Name: record.Name, Err: err})
		metrics.CalendarEventsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		s.out.fail("Failed to create calendar event for %s: %v", record.Name, err)
		log.Errorw("Failed to create calendar event", "record_id", record.ID, "activity_id", record.ActivityID, "error", err)
		s.reportError(ctx, err, map[string]string{
			"pipeline":    metrics.PipelineCalendar,
			"run_id":      runID,
			"record_id":   record.ID,
			"activity_id": strconv.FormatInt(record.ActivityID, 10),
		})
	}

	handle, err := s.calendar.CreateEvent(ctx, record)
	if err != nil {
		itemFailed(err)
		return
	}

	if err := s.store.MarkCalendarCreated(ctx, record.ID); err != nil {
		itemFailed(fmt.Errorf("event %s created but record not marked: %w", handle.ID, err))
		return
	}

	report.Succeeded++
	if handle.Existing {
		metrics.CalendarEventsTotal.WithLabelValues(metrics.ResultExisted).Inc()
		s.out.skip("%s: %s already on the calendar", record.Type, record.Name)
	} else {
		metrics.CalendarEventsTotal.WithLabelValues(metrics.ResultCreated).Inc()
		s.out.ok("Created %s: %s (%s)", record.Type, record.Name, record.StartTimeLocal)
	}
	log.Infow("Calendar event recorded", "record_id", record.ID, "event_id", handle.ID, "existing", handle.Existing)
}

func (s *CalendarSync) printReport(report Report) {
	s.out.line("")
	s.out.ok("Created %d/%d calendar events", report.Succeeded, report.Attempted)
	if report.Failed > 0 {
		s.out.fail("%d failed", report.Failed)
	}
}
