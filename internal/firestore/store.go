package firestore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"strava-workout-sync/internal/metrics"
	"strava-workout-sync/internal/strava"
	"strava-workout-sync/internal/weeks"
	"strava-workout-sync/internal/workout"
)

// Store keeps one document per activity, keyed by the activity id
type Store struct {
	fs       *firestore.Client
	workouts *Collection[workout.Record]
	logger   *zap.SugaredLogger
}

// NewClient connects to projectID. FIRESTORE_EMULATOR_HOST is honoured by the SDK.
func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// NewStore creates a record store over collection
func NewStore(client *firestore.Client, collection string, logger *zap.SugaredLogger) *Store {
	return &Store{
		fs: client,
		workouts: &Collection[workout.Record]{
			Ref:           client.Collection(collection),
			ToFirestore:   RecordToFirestore,
			FromFirestore: FirestoreToRecord,
		},
		logger: logger,
	}
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.fs.Close()
}

func observe(op string) *prometheus.Timer {
	return prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.StoreFirestore, op))
}

func opFailed(op string) {
	metrics.DBOperationErrorsTotal.WithLabelValues(metrics.StoreFirestore, op).Inc()
}

func docID(activityID int64) string {
	return strconv.FormatInt(activityID, 10)
}

// TestConnection reads at most one document from the collection
func (s *Store) TestConnection(ctx context.Context) bool {
	timer := observe(metrics.DBOpTestConnection)
	defer timer.ObserveDuration()

	iter := s.workouts.Ref.Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		opFailed(metrics.DBOpTestConnection)
		s.logger.Errorw("Firestore connection failed", "collection", s.workouts.Ref.ID, "error", err)
		return false
	}

	s.logger.Infow("Firestore connection successful", "collection", s.workouts.Ref.ID)
	return true
}

// CreateRecord creates the activity's document. An existing document yields ErrDuplicateActivity.
func (s *Store) CreateRecord(ctx context.Context, activity strava.Activity, localStartTime string) (*workout.Record, error) {
	timer := observe(metrics.DBOpCreateRecord)
	defer timer.ObserveDuration()

	record, err := workout.NewRecord(activity, localStartTime)
	if err != nil {
		opFailed(metrics.DBOpCreateRecord)
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "create", Err: err}
	}

	doc := s.workouts.Doc(docID(activity.ID))
	if err := doc.Create(ctx, record); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, workout.ErrDuplicateActivity
		}
		opFailed(metrics.DBOpCreateRecord)
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "create", Err: err}
	}

	record.ID = doc.ID()
	return record, nil
}

// FindUnprocessed returns records dated inside window without a calendar event, ordered by start time
func (s *Store) FindUnprocessed(ctx context.Context, window weeks.Window) ([]*workout.Record, error) {
	timer := observe(metrics.DBOpFindUnprocessed)
	defer timer.ObserveDuration()

	// Only the date range goes to Firestore: adding the calendar_created equality
	// would need a composite index on (calendar_created, date).
	q := s.workouts.Ref.
		Where(fieldDate, ">=", window.Start.Format(time.DateOnly)).
		Where(fieldDate, "<=", window.End.Format(time.DateOnly))

	all, err := s.workouts.All(ctx, q)
	if err != nil {
		opFailed(metrics.DBOpFindUnprocessed)
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	records := pendingByStart(all)

	s.logger.Infow("Found workouts without calendar events", "count", len(records), "window", window.String())
	return records, nil
}

// MarkCalendarCreated sets calendar_created on the document
func (s *Store) MarkCalendarCreated(ctx context.Context, id string) error {
	timer := observe(metrics.DBOpMarkCalendarCreated)
	defer timer.ObserveDuration()

	if err := s.workouts.Doc(id).Update(ctx, map[string]interface{}{fieldCalendarCreated: true}); err != nil {
		opFailed(metrics.DBOpMarkCalendarCreated)
		return fmt.Errorf("failed to mark workout %s: %w", id, err)
	}
	return nil
}

// pendingByStart keeps records without a calendar event, ordered by start time
func pendingByStart(records []*workout.Record) []*workout.Record {
	pending := slices.DeleteFunc(records, func(r *workout.Record) bool { return r.CalendarCreated })

	slices.SortStableFunc(pending, func(a, b *workout.Record) int {
		at, aErr := a.Start()
		bt, bErr := b.Start()
		if aErr != nil || bErr != nil {
			return cmp.Compare(a.StartTimeLocal, b.StartTimeLocal)
		}
		return at.Compare(bt)
	})
	return pending
}
