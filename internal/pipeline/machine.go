package pipeline

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"strava-workout-sync/internal/metrics"
)

// Run states
const (
	StateSelectingRange  = "selecting_range"
	StateRangeConfirmed  = "range_confirmed"
	StateFetching        = "fetching"
	StateSaving          = "saving"
	StateFetchingPending = "fetching_pending"
	StateCreatingEvents  = "creating_events"
	StateReporting       = "reporting"
	StateDone            = "done"
	StateCancelled       = "cancelled"
	StateFailed          = "failed"
)

// Run events
const (
	EventRangeSelected = "range_selected"
	EventConfirm       = "confirm"
	EventCancel        = "cancel"
	EventSave          = "save"
	EventCreateEvents  = "create_events"
	EventReport        = "report"
	EventFinish        = "finish"
	EventFail          = "fail"
)

var collectorEvents = fsm.Events{
	{Name: EventRangeSelected, Src: []string{StateSelectingRange}, Dst: StateRangeConfirmed},
	{Name: EventConfirm, Src: []string{StateRangeConfirmed}, Dst: StateFetching},
	{Name: EventCancel, Src: []string{StateRangeConfirmed}, Dst: StateCancelled},
	{Name: EventSave, Src: []string{StateFetching}, Dst: StateSaving},
	// Zero activities skip straight to the report
	{Name: EventReport, Src: []string{StateFetching, StateSaving}, Dst: StateReporting},
	{Name: EventFinish, Src: []string{StateReporting}, Dst: StateDone},
	{Name: EventFail, Src: []string{StateSelectingRange, StateRangeConfirmed, StateFetching}, Dst: StateFailed},
}

var calendarEvents = fsm.Events{
	{Name: EventRangeSelected, Src: []string{StateSelectingRange}, Dst: StateFetchingPending},
	{Name: EventCreateEvents, Src: []string{StateFetchingPending}, Dst: StateCreatingEvents},
	{Name: EventReport, Src: []string{StateFetchingPending, StateCreatingEvents}, Dst: StateReporting},
	{Name: EventFinish, Src: []string{StateReporting}, Dst: StateDone},
	{Name: EventFail, Src: []string{StateSelectingRange, StateFetchingPending}, Dst: StateFailed},
}

// machine wraps an fsm.FSM with transition logging and metrics
type machine struct {
	pipeline string
	fsm      *fsm.FSM
}

func newMachine(pipeline string, events fsm.Events, logger *zap.SugaredLogger) *machine {
	m := &machine{pipeline: pipeline}
	m.fsm = fsm.NewFSM(
		StateSelectingRange,
		events,
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				metrics.StateTransitionsTotal.WithLabelValues(pipeline, e.Src, e.Dst).Inc()
				logger.Debugw("State transition", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return m
}

func (m *machine) current() string {
	return m.fsm.Current()
}

func (m *machine) fire(ctx context.Context, event string) error {
	if err := m.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("%s: event %s in state %s: %w", m.pipeline, event, m.fsm.Current(), err)
	}
	return nil
}
