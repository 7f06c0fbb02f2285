package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strava-workout-sync/internal/calendar"
	"strava-workout-sync/internal/prompt"
	"strava-workout-sync/internal/workout"
)

type calendarHarness struct {
	store    *fakeStore
	calendar *fakeCalendar
	input    *prompt.Scripted
	out      *bytes.Buffer
	reported []error
	s        *CalendarSync
}

// newCalendarHarness seeds the store with the week-10 activities
func newCalendarHarness(t *testing.T, week string) *calendarHarness {
	h := &calendarHarness{
		store:    newFakeStore(),
		calendar: &fakeCalendar{},
		input:    prompt.NewScripted(map[string][]string{prompt.KeyWeek: {week}}),
		out:      &bytes.Buffer{},
	}

	loc := newYork(t)
	for _, a := range runActivities() {
		_, err := h.store.CreateRecord(context.Background(), a, workout.LocalStartTime(a, loc))
		require.NoError(t, err)
	}

	h.s = NewCalendarSync(CalendarSyncConfig{
		Store:    h.store,
		Calendar: h.calendar,
		Input:    h.input,
		Out:      h.out,
		Location: loc,
		Year:     2025,
		ReportError: func(_ context.Context, err error, _ map[string]string) {
			h.reported = append(h.reported, err)
		},
	})
	return h
}

func TestCalendarSync_CreatesAndMarks(t *testing.T) {
	h := newCalendarHarness(t, "10")

	result := h.s.Run(context.Background())

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 0, result.ExitCode())
	assert.Equal(t, 3, result.Report.Attempted)
	assert.Equal(t, 3, result.Report.Succeeded)
	assert.Equal(t, []string{"rec-1", "rec-2", "rec-3"}, h.calendar.created)
	assert.ElementsMatch(t, []string{"rec-1", "rec-2", "rec-3"}, h.store.marked)
	assert.Contains(t, h.out.String(), "Created 3/3 calendar events")

	// No confirmation gate on the calendar run
	for _, q := range h.input.Asked {
		assert.NotEqual(t, prompt.KeyConfirm, q.Key)
	}
}

func TestCalendarSync_FailedEventIsNotMarked(t *testing.T) {
	h := newCalendarHarness(t, "10")
	h.calendar.fail = map[string]bool{"rec-2": true}

	result := h.s.Run(context.Background())

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 0, result.ExitCode())
	assert.Equal(t, 2, result.Report.Succeeded)
	assert.Equal(t, 1, result.Report.Failed)
	assert.ElementsMatch(t, []string{"rec-1", "rec-3"}, h.store.marked)
	assert.False(t, h.store.records[2].CalendarCreated)
	require.Len(t, h.reported, 1)

	var writeErr *calendar.CalendarWriteError
	assert.True(t, errors.As(h.reported[0], &writeErr))
}

func TestCalendarSync_RerunOnlyRetriesUnmarked(t *testing.T) {
	h := newCalendarHarness(t, "10")
	h.calendar.fail = map[string]bool{"rec-2": true}
	h.s.Run(context.Background())

	h.calendar.fail = nil
	h.calendar.created = nil
	h.input = prompt.NewScripted(map[string][]string{prompt.KeyWeek: {"10"}})
	h.s.input = h.input

	result := h.s.Run(context.Background())

	assert.Equal(t, 1, result.Report.Attempted)
	assert.Equal(t, []string{"rec-2"}, h.calendar.created)
}

func TestCalendarSync_MarkFailure(t *testing.T) {
	h := newCalendarHarness(t, "10")
	h.store.failMark = map[string]bool{"rec-3": true}

	result := h.s.Run(context.Background())

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 2, result.Report.Succeeded)
	assert.Equal(t, 1, result.Report.Failed)
	assert.Contains(t, h.calendar.created, "rec-3")
	assert.False(t, h.store.records[3].CalendarCreated)
}

func TestCalendarSync_ExistingEvent(t *testing.T) {
	h := newCalendarHarness(t, "10")
	h.calendar.existing = map[string]bool{"rec-1": true}

	result := h.s.Run(context.Background())

	assert.Equal(t, 3, result.Report.Succeeded)
	assert.Contains(t, h.store.marked, "rec-1")
	assert.NotContains(t, h.calendar.created, "rec-1")
	assert.Contains(t, h.out.String(), "[SKIP] Run: Morning Run already on the calendar")
}

func TestCalendarSync_NothingPending(t *testing.T) {
	h := newCalendarHarness(t, "20")

	result := h.s.Run(context.Background())

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 0, result.Report.Attempted)
	assert.Empty(t, h.calendar.created)
	assert.Contains(t, h.out.String(), "No workouts found without calendar events")
}

func TestCalendarSync_PendingQueryFails(t *testing.T) {
	h := newCalendarHarness(t, "10")
	h.store.pendingErr = errors.New("notion unavailable")

	result := h.s.Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 1, result.ExitCode())
	assert.ErrorIs(t, result.Err, ErrPending)
}

func TestCalendarSync_PreflightFailure(t *testing.T) {
	h := newCalendarHarness(t, "10")
	h.calendar.down = true

	result := h.s.Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.ErrorIs(t, result.Err, ErrConnection)
	assert.Empty(t, h.input.Asked)
}

func TestCalendarSync_InvalidWeek(t *testing.T) {
	h := newCalendarHarness(t, "60")

	result := h.s.Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 1, result.ExitCode())
	assert.ErrorIs(t, result.Err, ErrInvalidWeek)
	assert.Empty(t, h.store.marked)
}
