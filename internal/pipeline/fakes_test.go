package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"strava-workout-sync/internal/calendar"
	"strava-workout-sync/internal/strava"
	"strava-workout-sync/internal/weeks"
	"strava-workout-sync/internal/workout"
)

type fakeSource struct {
	down       bool
	activities []strava.Activity
	err        error
	fetched    []weeks.Window
}

func (f *fakeSource) TestConnection(context.Context) bool { return !f.down }

func (f *fakeSource) FetchActivities(_ context.Context, window weeks.Window) ([]strava.Activity, error) {
	f.fetched = append(f.fetched, window)
	if f.err != nil {
		return nil, f.err
	}
	return f.activities, nil
}

type fakeStore struct {
	down    bool
	records map[int64]*workout.Record
	order   []int64
	// failCreate makes CreateRecord fail for these activity ids
	failCreate map[int64]bool
	// failMark makes MarkCalendarCreated fail for these record ids
	failMark   map[string]bool
	pendingErr error
	creates    int
	localTimes []string
	marked     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[int64]*workout.Record{}}
}

func (f *fakeStore) TestConnection(context.Context) bool { return !f.down }

func (f *fakeStore) CreateRecord(_ context.Context, activity strava.Activity, localStartTime string) (*workout.Record, error) {
	f.creates++
	f.localTimes = append(f.localTimes, localStartTime)

	if f.failCreate[activity.ID] {
		return nil, &workout.WriteError{ActivityID: activity.ID, Op: "create", Err: errors.New("validation_error")}
	}
	if _, ok := f.records[activity.ID]; ok {
		return nil, workout.ErrDuplicateActivity
	}

	record, err := workout.NewRecord(activity, localStartTime)
	if err != nil {
		return nil, err
	}
	record.ID = "rec-" + strconv.FormatInt(activity.ID, 10)
	f.records[activity.ID] = record
	f.order = append(f.order, activity.ID)
	return record, nil
}

func (f *fakeStore) FindUnprocessed(_ context.Context, window weeks.Window) ([]*workout.Record, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}

	var out []*workout.Record
	for _, id := range f.order {
		r := f.records[id]
		start, err := r.Start()
		if err != nil {
			return nil, err
		}
		if !r.CalendarCreated && window.Contains(start) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkCalendarCreated(_ context.Context, id string) error {
	if f.failMark[id] {
		return fmt.Errorf("page %s is archived", id)
	}
	for _, r := range f.records {
		if r.ID == id {
			r.CalendarCreated = true
			f.marked = append(f.marked, id)
			return nil
		}
	}
	return fmt.Errorf("record %s not found", id)
}

type fakeCalendar struct {
	down bool
	// fail makes CreateEvent fail for these record ids
	fail map[string]bool
	// existing returns an existing event for these record ids
	existing map[string]bool
	created  []string
}

func (f *fakeCalendar) TestConnection(context.Context) bool { return !f.down }

func (f *fakeCalendar) CreateEvent(_ context.Context, record *workout.Record) (calendar.EventHandle, error) {
	if f.fail[record.ID] {
		return calendar.EventHandle{}, &calendar.CalendarWriteError{RecordID: record.ID, ActivityID: record.ActivityID, Err: errors.New("rate limited")}
	}
	if f.existing[record.ID] {
		return calendar.EventHandle{ID: "evt-" + record.ID, Existing: true}, nil
	}
	f.created = append(f.created, record.ID)
	return calendar.EventHandle{ID: "evt-" + record.ID}, nil
}
