// Package weeks resolves Sunday-Saturday week windows and single-day windows
// for a calendar year in a given location.
package weeks

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"time"
)

// WeeksPerYear is the number of selectable weeks in a year.
const WeeksPerYear = 52

var (
	// ErrInvalidFormat is returned when a date string is not DD-MM-YY
	ErrInvalidFormat = errors.New("invalid format, use DD-MM-YY (e.g. 15-03-25)")
	// ErrInvalidCalendarDate is returned when a DD-MM-YY string names a day that does not exist
	ErrInvalidCalendarDate = errors.New("invalid date, check day, month and year")
	// ErrInvalidWeek is returned for week numbers outside the selectable range
	ErrInvalidWeek = errors.New("invalid week number")
)

var explicitDateRe = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{2})$`)

// Window is a closed time interval. End is the last millisecond of the last day.
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days covered by the window.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Round(24*time.Hour) / (24 * time.Hour))
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s - %s", w.Start.Format("Mon Jan 2 2006"), w.End.Format("Mon Jan 2 2006"))
}

// WeekLabel is a display entry for a selectable week.
type WeekLabel struct {
	Number int
	Label  string
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// FirstSunday returns Jan 1 of year if it is a Sunday, otherwise the first Sunday after it.
func FirstSunday(year int, loc *time.Location) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	if jan1.Weekday() == time.Sunday {
		return jan1
	}
	return jan1.AddDate(0, 0, 7-int(jan1.Weekday()))
}

// WeekBoundaries returns the Sunday-Saturday window of the given week.
// Week numbers are not validated; see ValidateWeekNumber.
func WeekBoundaries(year, week int, loc *time.Location) Window {
	start := FirstSunday(year, loc).AddDate(0, 0, (week-1)*7)
	return Window{
		Start: start,
		End:   endOfDay(start.AddDate(0, 0, 6)),
	}
}

// DayWindow returns the window covering the calendar day of date in date's location.
func DayWindow(date time.Time) Window {
	return Window{Start: startOfDay(date), End: endOfDay(date)}
}

// WeekContaining returns the Sunday-Saturday window that contains date.
func WeekContaining(date time.Time) Window {
	start := startOfDay(date).AddDate(0, 0, -int(date.Weekday()))
	return Window{Start: start, End: endOfDay(start.AddDate(0, 0, 6))}
}

// LeadingWeek returns the window numbered 0: the Sunday-Saturday week that holds
// the January days before the first Sunday. ok is false when Jan 1 is a Sunday.
func LeadingWeek(year int, loc *time.Location) (Window, bool) {
	if time.Date(year, time.January, 1, 0, 0, 0, 0, loc).Weekday() == time.Sunday {
		return Window{}, false
	}
	return WeekBoundaries(year, 0, loc), true
}

// ValidateWeekNumber accepts weeks 1-52, and week 0 when the year has a leading partial week.
func ValidateWeekNumber(year, week int, loc *time.Location) error {
	if week >= 1 && week <= WeeksPerYear {
		return nil
	}
	if week == 0 {
		if _, ok := LeadingWeek(year, loc); ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrInvalidWeek, week)
}

// WeekNumber returns the week of year that contains date, 0 for the leading
// partial week. ok is false when date is outside weeks 0-52 of year.
func WeekNumber(year int, date time.Time) (int, bool) {
	first := FirstSunday(year, date.Location())
	day := startOfDay(date)
	// calendar-day difference, immune to DST-length days
	diff := int(day.Sub(first).Round(24*time.Hour) / (24 * time.Hour))
	if diff < -7 {
		return 0, false
	}
	week := 0
	if diff >= 0 {
		week = diff/7 + 1
	}
	if week > WeeksPerYear {
		return 0, false
	}
	if week == 0 {
		if _, ok := LeadingWeek(year, date.Location()); !ok {
			return 0, false
		}
	}
	return week, true
}

// WeekLabels yields the 52 selectable weeks of year with labels like
// "Week 01 (Jan 5 - Jan 11)". The sequence can be ranged over any number of times.
func WeekLabels(year int, loc *time.Location) iter.Seq[WeekLabel] {
	return func(yield func(WeekLabel) bool) {
		for i := 1; i <= WeeksPerYear; i++ {
			w := WeekBoundaries(year, i, loc)
			label := WeekLabel{
				Number: i,
				Label:  fmt.Sprintf("Week %02d (%s - %s)", i, w.Start.Format("Jan 2"), w.End.Format("Jan 2")),
			}
			if !yield(label) {
				return
			}
		}
	}
}

// ParseExplicitDate parses a DD-MM-YY string into midnight of that day in loc.
// Two-digit years map to 20YY.
func ParseExplicitDate(text string, loc *time.Location) (time.Time, error) {
	match := explicitDateRe.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, ErrInvalidFormat
	}

	day, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	yy, _ := strconv.Atoi(match[3])
	year := 2000 + yy

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)

	// time.Date normalizes overflow (31-02 becomes 03-03), so require a round trip
	y, m, d := date.Date()
	if y != year || int(m) != month || d != day {
		return time.Time{}, ErrInvalidCalendarDate
	}

	return date, nil
}
