package weeks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestFirstSunday(t *testing.T) {
	tests := []struct {
		year int
		want string
	}{
		{2023, "2023-01-01"}, // Jan 1 is a Sunday
		{2024, "2024-01-07"},
		{2025, "2025-01-05"},
		{2026, "2026-01-04"},
		{2028, "2028-01-02"},
	}

	for _, tt := range tests {
		got := FirstSunday(tt.year, time.UTC)
		assert.Equal(t, tt.want, got.Format(time.DateOnly), "year %d", tt.year)
		assert.Equal(t, time.Sunday, got.Weekday())
	}
}

func TestWeekBoundaries_FirstWeekStartsOnFirstSunday(t *testing.T) {
	loc := newYork(t)
	for year := 2000; year <= 2040; year++ {
		w := WeekBoundaries(year, 1, loc)
		assert.True(t, w.Start.Equal(FirstSunday(year, loc)), "year %d", year)
		assert.Equal(t, time.Saturday, w.End.Weekday(), "year %d", year)
	}
}

func TestWeekBoundaries_Contiguous(t *testing.T) {
	loc := newYork(t)
	for _, year := range []int{2023, 2024, 2025, 2026} {
		for week := 1; week < WeeksPerYear; week++ {
			cur := WeekBoundaries(year, week, loc)
			next := WeekBoundaries(year, week+1, loc)
			require.True(t, cur.End.Add(time.Millisecond).Equal(next.Start),
				"year %d week %d: end %s next start %s", year, week, cur.End, next.Start)
			require.Equal(t, 7, cur.Days())
		}
	}
}

func TestWeekBoundaries_Week10Of2025(t *testing.T) {
	w := WeekBoundaries(2025, 10, time.UTC)

	assert.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, time.March, 15, 23, 59, 59, 999000000, time.UTC), w.End)
}

func TestDayWindow(t *testing.T) {
	loc := newYork(t)
	date := time.Date(2025, time.March, 15, 14, 30, 0, 0, loc)

	w := DayWindow(date)

	assert.Equal(t, "2025-03-15", w.Start.Format(time.DateOnly))
	assert.Equal(t, "2025-03-15", w.End.Format(time.DateOnly))
	assert.Equal(t, 24*time.Hour-time.Millisecond, w.End.Sub(w.Start))
	assert.Equal(t, 1, w.Days())
	assert.True(t, w.Contains(date))
	assert.False(t, w.Contains(w.End.Add(time.Millisecond)))
}

func TestWeekContaining(t *testing.T) {
	// Wednesday
	date := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)

	w := WeekContaining(date)

	assert.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, "2025-03-15", w.End.Format(time.DateOnly))
	assert.Equal(t, w, WeekBoundaries(2025, 10, time.UTC))
}

func TestLeadingWeek(t *testing.T) {
	w, ok := LeadingWeek(2025, time.UTC)
	require.True(t, ok)
	assert.Equal(t, "2024-12-29", w.Start.Format(time.DateOnly))
	assert.Equal(t, "2025-01-04", w.End.Format(time.DateOnly))
	assert.True(t, w.End.Add(time.Millisecond).Equal(WeekBoundaries(2025, 1, time.UTC).Start))

	_, ok = LeadingWeek(2023, time.UTC)
	assert.False(t, ok, "2023 starts on a Sunday and has no leading week")
}

func TestValidateWeekNumber(t *testing.T) {
	assert.NoError(t, ValidateWeekNumber(2025, 1, time.UTC))
	assert.NoError(t, ValidateWeekNumber(2025, 52, time.UTC))
	assert.NoError(t, ValidateWeekNumber(2025, 0, time.UTC))

	assert.ErrorIs(t, ValidateWeekNumber(2023, 0, time.UTC), ErrInvalidWeek)
	assert.ErrorIs(t, ValidateWeekNumber(2025, 53, time.UTC), ErrInvalidWeek)
	assert.ErrorIs(t, ValidateWeekNumber(2025, -1, time.UTC), ErrInvalidWeek)
}

func TestWeekNumber(t *testing.T) {
	loc := newYork(t)

	tests := []struct {
		date   time.Time
		want   int
		wantOK bool
	}{
		{time.Date(2025, time.January, 1, 12, 0, 0, 0, loc), 0, true},
		{time.Date(2025, time.January, 5, 0, 0, 0, 0, loc), 1, true},
		{time.Date(2025, time.March, 12, 8, 0, 0, 0, loc), 10, true},
		// DST starts March 9 2025 in New York
		{time.Date(2025, time.March, 9, 23, 0, 0, 0, loc), 10, true},
		{time.Date(2025, time.December, 27, 23, 0, 0, 0, loc), 51, true},
		{time.Date(2025, time.December, 28, 1, 0, 0, 0, loc), 52, true},
		{time.Date(2026, time.January, 4, 0, 0, 0, 0, loc), 0, false},
		{time.Date(2024, time.December, 20, 0, 0, 0, 0, loc), 0, false},
	}

	for _, tt := range tests {
		got, ok := WeekNumber(2025, tt.date)
		assert.Equal(t, tt.wantOK, ok, "date %s", tt.date)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, "date %s", tt.date)
		}
	}
}

func TestWeekLabels(t *testing.T) {
	var labels []WeekLabel
	for label := range WeekLabels(2025, time.UTC) {
		labels = append(labels, label)
	}

	require.Len(t, labels, WeeksPerYear)
	assert.Equal(t, WeekLabel{Number: 1, Label: "Week 01 (Jan 5 - Jan 11)"}, labels[0])
	assert.Equal(t, WeekLabel{Number: 10, Label: "Week 10 (Mar 9 - Mar 15)"}, labels[9])
	assert.Equal(t, WeekLabel{Number: 52, Label: "Week 52 (Dec 28 - Jan 3)"}, labels[51])

	// restartable and deterministic
	var again []WeekLabel
	for label := range WeekLabels(2025, time.UTC) {
		again = append(again, label)
	}
	assert.Equal(t, labels, again)
}

func TestWeekLabels_EarlyStop(t *testing.T) {
	count := 0
	for range WeekLabels(2025, time.UTC) {
		count++
		if count == 5 {
			break
		}
	}
	assert.Equal(t, 5, count)
}

func TestParseExplicitDate(t *testing.T) {
	loc := newYork(t)

	got, err := ParseExplicitDate("15-03-25", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, loc), got)

	got, err = ParseExplicitDate("5-1-25", loc)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", got.Format(time.DateOnly))

	got, err = ParseExplicitDate("29-02-24", loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got.Format(time.DateOnly))
}

func TestParseExplicitDate_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"abc", ErrInvalidFormat},
		{"", ErrInvalidFormat},
		{"15/03/25", ErrInvalidFormat},
		{"15-03-2025", ErrInvalidFormat},
		{" 15-03-25", ErrInvalidFormat},
		{"31-02-25", ErrInvalidCalendarDate},
		{"31-04-25", ErrInvalidCalendarDate},
		{"29-02-25", ErrInvalidCalendarDate},
		{"00-01-25", ErrInvalidCalendarDate},
		{"15-13-25", ErrInvalidCalendarDate},
	}

	for _, tt := range tests {
		_, err := ParseExplicitDate(tt.input, time.UTC)
		assert.ErrorIs(t, err, tt.want, "input %q", tt.input)
	}
}
