package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"strava-workout-sync/internal/strava"
	"strava-workout-sync/internal/weeks"
	"strava-workout-sync/internal/workout"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Init())

	return NewStore(db, zap.NewNop().Sugar())
}

func activityAt(id int64, name string, start time.Time) strava.Activity {
	distance := 5000.0
	return strava.Activity{
		ID:         id,
		Name:       name,
		Type:       "Run",
		StartDate:  start.UTC(),
		Distance:   &distance,
		MovingTime: 1800,
	}
}

func create(t *testing.T, s *Store, a strava.Activity, loc *time.Location) *workout.Record {
	t.Helper()
	record, err := s.CreateRecord(context.Background(), a, workout.LocalStartTime(a, loc))
	require.NoError(t, err)
	return record
}

// storedRecord reads the row for an activity straight from the table
func storedRecord(t *testing.T, s *Store, activityID int64) *workout.Record {
	t.Helper()
	record, err := scanRecord(s.db.conn.QueryRow(selectColumns+` WHERE activity_id = ?`, activityID))
	require.NoError(t, err)
	return record
}

func TestInitIsIdempotent(t *testing.T) {
	db, err := Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Init())
	require.NoError(t, db.Init())

	var version int
	require.NoError(t, db.conn.QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, schemaVersion, version)
}

func TestInitRejectsNewerSchema(t *testing.T) {
	db, err := Open(t.TempDir() + "/nested/dir/test.db")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.conn.Exec(`PRAGMA user_version = 99`)
	require.NoError(t, err)

	assert.ErrorContains(t, db.Init(), "schema version 99")
}

func TestTestConnection(t *testing.T) {
	s := newTestStore(t)
	assert.True(t, s.TestConnection(context.Background()))

	require.NoError(t, s.db.Close())
	assert.False(t, s.TestConnection(context.Background()))
}

func TestTestConnection_MissingSchema(t *testing.T) {
	db, err := Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	defer db.Close()

	assert.False(t, NewStore(db, zap.NewNop().Sugar()).TestConnection(context.Background()))
}

func TestCreateRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := activityAt(111, "Lunch Run", time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC))
	record, err := s.CreateRecord(ctx, a, "2025-03-10T12:00:00-04:00")
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "2025-03-10", record.Date)
	assert.Equal(t, 3.1, record.DistanceMiles)
	assert.Equal(t, 30, record.DurationMinutes)

	assert.Equal(t, record, storedRecord(t, s, 111))
}

func TestCreateRecord_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := activityAt(222, "Ride", time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC))
	first := create(t, s, a, time.UTC)

	a.Name = "Renamed Ride"
	_, err := s.CreateRecord(ctx, a, workout.LocalStartTime(a, time.UTC))
	assert.True(t, errors.Is(err, workout.ErrDuplicateActivity))

	assert.Equal(t, first.Name, storedRecord(t, s, 222).Name)
}

func TestCreateRecord_InvalidLocalTime(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateRecord(context.Background(), activityAt(333, "x", time.Now()), "not a time")

	var writeErr *workout.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, int64(333), writeErr.ActivityID)
}

func TestFindUnprocessed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	window := weeks.WeekBoundaries(2025, 10, loc) // Mar 9 - Mar 15

	later := create(t, s, activityAt(1, "Saturday", time.Date(2025, 3, 15, 14, 0, 0, 0, loc)), loc)
	earlier := create(t, s, activityAt(2, "Sunday", time.Date(2025, 3, 9, 8, 0, 0, 0, loc)), loc)
	create(t, s, activityAt(3, "Before", time.Date(2025, 3, 8, 23, 0, 0, 0, loc)), loc)
	create(t, s, activityAt(4, "After", time.Date(2025, 3, 16, 0, 30, 0, 0, loc)), loc)
	done := create(t, s, activityAt(5, "Done", time.Date(2025, 3, 12, 7, 0, 0, 0, loc)), loc)
	require.NoError(t, s.MarkCalendarCreated(ctx, done.ID))

	records, err := s.FindUnprocessed(ctx, window)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, earlier.ActivityID, records[0].ActivityID)
	assert.Equal(t, later.ActivityID, records[1].ActivityID)
}

func TestFindUnprocessed_Empty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.FindUnprocessed(context.Background(), weeks.WeekBoundaries(2025, 1, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMarkCalendarCreated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := create(t, s, activityAt(10, "Swim", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)), time.UTC)
	require.NoError(t, s.MarkCalendarCreated(ctx, record.ID))
	// Marking twice keeps the flag set
	require.NoError(t, s.MarkCalendarCreated(ctx, record.ID))

	assert.True(t, storedRecord(t, s, 10).CalendarCreated)
}

func TestMarkCalendarCreated_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.MarkCalendarCreated(ctx, "abc"))
	assert.Error(t, s.MarkCalendarCreated(ctx, "9999"))
}
