package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"strava-workout-sync/internal/metrics"
	"strava-workout-sync/internal/strava"
	"strava-workout-sync/internal/weeks"
	"strava-workout-sync/internal/workout"
)

// Store is a record store backed by a SQLite workouts table
type Store struct {
	db     *DB
	logger *zap.SugaredLogger
}

// NewStore creates a record store on an opened and initialized database
func NewStore(db *DB, logger *zap.SugaredLogger) *Store {
	return &Store{db: db, logger: logger}
}

func observe(op string) *prometheus.Timer {
	return prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.StoreSQLite, op))
}

func opFailed(op string) {
	metrics.DBOperationErrorsTotal.WithLabelValues(metrics.StoreSQLite, op).Inc()
}

// TestConnection pings the database
func (s *Store) TestConnection(ctx context.Context) bool {
	timer := observe(metrics.DBOpTestConnection)
	defer timer.ObserveDuration()

	if err := s.db.Health(ctx); err != nil {
		opFailed(metrics.DBOpTestConnection)
		s.logger.Errorw("SQLite connection failed", "error", err)
		return false
	}

	var count int
	if err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM workouts`).Scan(&count); err != nil {
		opFailed(metrics.DBOpTestConnection)
		s.logger.Errorw("SQLite workouts table unavailable", "error", err)
		return false
	}

	s.logger.Infow("SQLite connection successful", "records", count)
	return true
}

// CreateRecord inserts a record for activity. An existing row with the same activity id
// is left untouched and ErrDuplicateActivity is returned.
func (s *Store) CreateRecord(ctx context.Context, activity strava.Activity, localStartTime string) (*workout.Record, error) {
	timer := observe(metrics.DBOpCreateRecord)
	defer timer.ObserveDuration()

	record, err := workout.NewRecord(activity, localStartTime)
	if err != nil {
		opFailed(metrics.DBOpCreateRecord)
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "create", Err: err}
	}

	now := time.Now().Unix()
	result, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO workouts (
			activity_id, name, activity_type, date, start_time_local, start_unix,
			duration_minutes, distance_miles, calendar_created, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(activity_id) DO NOTHING
	`, record.ActivityID, record.Name, record.Type, record.Date, record.StartTimeLocal,
		activity.StartDate.Unix(), record.DurationMinutes, record.DistanceMiles, now, now)
	if err != nil {
		opFailed(metrics.DBOpCreateRecord)
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "create", Err: err}
	}

	rows, err := result.RowsAffected()
	if err != nil {
		opFailed(metrics.DBOpCreateRecord)
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "create", Err: err}
	}
	if rows == 0 {
		return nil, workout.ErrDuplicateActivity
	}

	id, err := result.LastInsertId()
	if err != nil {
		opFailed(metrics.DBOpCreateRecord)
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "create", Err: err}
	}
	record.ID = strconv.FormatInt(id, 10)

	s.logger.Debugw("Inserted workout row", "id", id, "activity_id", record.ActivityID)
	return record, nil
}

const selectColumns = `
	SELECT id, activity_id, name, activity_type, date, start_time_local,
	       duration_minutes, distance_miles, calendar_created
	FROM workouts`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*workout.Record, error) {
	var (
		r  workout.Record
		id int64
	)
	if err := row.Scan(&id, &r.ActivityID, &r.Name, &r.Type, &r.Date, &r.StartTimeLocal,
		&r.DurationMinutes, &r.DistanceMiles, &r.CalendarCreated); err != nil {
		return nil, err
	}
	r.ID = strconv.FormatInt(id, 10)
	return &r, nil
}

// FindUnprocessed returns records dated inside window that have no calendar event yet,
// ordered by start time
func (s *Store) FindUnprocessed(ctx context.Context, window weeks.Window) ([]*workout.Record, error) {
	timer := observe(metrics.DBOpFindUnprocessed)
	defer timer.ObserveDuration()

	rows, err := s.db.conn.QueryContext(ctx, selectColumns+`
		WHERE calendar_created = 0 AND date >= ? AND date <= ?
		ORDER BY start_unix ASC
	`, window.Start.Format(time.DateOnly), window.End.Format(time.DateOnly))
	if err != nil {
		opFailed(metrics.DBOpFindUnprocessed)
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	defer rows.Close()

	var records []*workout.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			opFailed(metrics.DBOpFindUnprocessed)
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		opFailed(metrics.DBOpFindUnprocessed)
		return nil, fmt.Errorf("failed to iterate workouts: %w", err)
	}

	s.logger.Infow("Found workouts without calendar events", "count", len(records), "window", window.String())
	return records, nil
}

// MarkCalendarCreated sets the calendar flag on a record
func (s *Store) MarkCalendarCreated(ctx context.Context, id string) error {
	timer := observe(metrics.DBOpMarkCalendarCreated)
	defer timer.ObserveDuration()

	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		opFailed(metrics.DBOpMarkCalendarCreated)
		return fmt.Errorf("invalid workout id %q: %w", id, err)
	}

	result, err := s.db.conn.ExecContext(ctx, `
		UPDATE workouts SET calendar_created = 1, updated_at = ?
		WHERE id = ?
	`, time.Now().Unix(), rowID)
	if err != nil {
		opFailed(metrics.DBOpMarkCalendarCreated)
		return fmt.Errorf("failed to mark workout %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		opFailed(metrics.DBOpMarkCalendarCreated)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		opFailed(metrics.DBOpMarkCalendarCreated)
		return fmt.Errorf("workout %s not found", id)
	}

	return nil
}
