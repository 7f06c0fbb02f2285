// Package workout defines the workout record kept in the record store and the
// mapping from a Strava activity to that record.
package workout

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"time"

	"strava-workout-sync/internal/strava"
)

const (
	// DefaultName is used when an activity has no name
	DefaultName = "Unnamed Workout"
	// DefaultType is used when an activity has neither a type nor a sport type
	DefaultType = "Workout"

	// LocalTimeLayout is the ISO-8601 layout of StartTimeLocal. The offset is always numeric.
	LocalTimeLayout = "2006-01-02T15:04:05-07:00"

	metersPerMile = 1609.34
)

// ErrDuplicateActivity is returned by CreateRecord when the store already holds a
// record for the activity.
var ErrDuplicateActivity = errors.New("workout record already exists for activity")

// WriteError reports that a store rejected a record write
type WriteError struct {
	ActivityID int64
	Op         string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s workout record for activity %d: %v", e.Op, e.ActivityID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Record is a workout as persisted in the record store
type Record struct {
	ID              string  `json:"id" firestore:"-"`
	ActivityID      int64   `json:"activity_id" firestore:"activity_id"`
	Name            string  `json:"name" firestore:"name"`
	Type            string  `json:"type" firestore:"type"`
	Date            string  `json:"date" firestore:"date"`
	StartTimeLocal  string  `json:"start_time_local" firestore:"start_time_local"`
	DurationMinutes int     `json:"duration_minutes" firestore:"duration_minutes"`
	DistanceMiles   float64 `json:"distance_miles" firestore:"distance_miles"`
	CalendarCreated bool    `json:"calendar_created" firestore:"calendar_created"`
}

// Start parses StartTimeLocal
func (r *Record) Start() (time.Time, error) {
	t, err := time.Parse(LocalTimeLayout, r.StartTimeLocal)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q: %w", r.StartTimeLocal, err)
	}
	return t, nil
}

// StravaURL links back to the source activity
func (r *Record) StravaURL() string {
	return fmt.Sprintf("https://www.strava.com/activities/%d", r.ActivityID)
}

// LocalStartTime renders the activity's UTC start in loc
func LocalStartTime(activity strava.Activity, loc *time.Location) string {
	return activity.StartDate.In(loc).Format(LocalTimeLayout)
}

// NewRecord maps an activity to a new record. localStartTime must use LocalTimeLayout;
// the record date is taken from it, not from the UTC start.
func NewRecord(activity strava.Activity, localStartTime string) (*Record, error) {
	start, err := time.Parse(LocalTimeLayout, localStartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid local start time %q: %w", localStartTime, err)
	}

	name := activity.Name
	if name == "" {
		name = DefaultName
	}
	activityType := cmp.Or(activity.Type, activity.SportType, DefaultType)

	return &Record{
		ActivityID:      activity.ID,
		Name:            name,
		Type:            activityType,
		Date:            start.Format(time.DateOnly),
		StartTimeLocal:  localStartTime,
		DurationMinutes: DurationMinutes(activity.MovingTime),
		DistanceMiles:   DistanceMiles(activity.Distance),
	}, nil
}

// DurationMinutes converts moving time in seconds to whole minutes
func DurationMinutes(movingTime int) int {
	return int(math.Round(float64(movingTime) / 60))
}

// DistanceMiles converts meters to miles rounded to one decimal. Nil is 0.
func DistanceMiles(meters *float64) float64 {
	if meters == nil {
		return 0
	}
	return math.Round(*meters/metersPerMile*10) / 10
}
