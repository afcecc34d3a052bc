package hooks

import (
	"github.com/cellflow/runtrack/event"
	"github.com/cellflow/runtrack/track"
)

type (
	// Event is the interface all lifecycle events implement. The dispatch
	// layer publishes events through the Bus, and subscribers receive them via
	// HandleEvent. Concrete event types carry typed payloads for each
	// lifecycle phase.
	//
	// Subscribers use type switches to access event-specific fields:
	//
	//	func (s *MySubscriber) HandleEvent(ctx context.Context, evt hooks.Event) error {
	//	    switch e := evt.(type) {
	//	    case *hooks.RunStartedEvent:
	//	        log.Printf("run started at %d", e.RunStartTime)
	//	    case *hooks.CellUpdatedEvent:
	//	        log.Printf("cell %s is %s", e.CellRun.CellID, e.CellRun.Status)
	//	    }
	//	    return nil
	//	}
	Event interface {
		Type() EventType
		RunID() string
		Timestamp() int64
	}

	// RunStartedEvent fires when the tracker sees the first event of a new run.
	RunStartedEvent struct {
		baseEvent
		// RunStartTime is the run's start timestamp (Unix ms), taken from the
		// first ingested event.
		RunStartTime int64
	}

	// RunEvictedEvent fires when a run falls off the bounded history. The run
	// named by RunID is the evicted one, not the run whose insertion caused
	// the eviction.
	RunEvictedEvent struct {
		baseEvent
		// EvictedBy is the run whose insertion pushed this run out.
		EvictedBy string
	}

	// CellUpdatedEvent fires whenever a cell entry is created or updated.
	CellUpdatedEvent struct {
		baseEvent
		// CellRun is the cell's summary after applying the event, including
		// the derived status and elapsed time.
		CellRun track.CellRun
		// Channel is the output channel attached to the triggering event,
		// empty if the event carried no output.
		Channel event.Channel
	}

	// RunsClearedEvent fires when the tracked history is reset. RunID is empty.
	RunsClearedEvent struct {
		baseEvent
		// Removed is how many runs the clear dropped.
		Removed int
	}

	// RunRemovedEvent fires when a run is explicitly removed.
	RunRemovedEvent struct {
		baseEvent
	}

	// baseEvent holds common fields shared by all event types. It is embedded
	// anonymously in each concrete event struct, providing the RunID and
	// Timestamp methods.
	baseEvent struct {
		runID     string
		timestamp int64
	}
)

// NewRunStartedEvent constructs a RunStartedEvent. ts stamps the event with
// the triggering cell event's timestamp.
func NewRunStartedEvent(runID string, ts int64) *RunStartedEvent {
	return &RunStartedEvent{
		baseEvent:    baseEvent{runID: runID, timestamp: ts},
		RunStartTime: ts,
	}
}

// NewRunEvictedEvent constructs a RunEvictedEvent for the run dropped from the
// bounded history.
func NewRunEvictedEvent(evictedRunID, evictedBy string, ts int64) *RunEvictedEvent {
	return &RunEvictedEvent{
		baseEvent: baseEvent{runID: evictedRunID, timestamp: ts},
		EvictedBy: evictedBy,
	}
}

// NewCellUpdatedEvent constructs a CellUpdatedEvent carrying the cell's
// post-update summary.
func NewCellUpdatedEvent(runID string, ts int64, cr track.CellRun, channel event.Channel) *CellUpdatedEvent {
	return &CellUpdatedEvent{
		baseEvent: baseEvent{runID: runID, timestamp: ts},
		CellRun:   cr,
		Channel:   channel,
	}
}

// NewRunsClearedEvent constructs a RunsClearedEvent. removed counts the runs
// dropped by the clear.
func NewRunsClearedEvent(removed int, ts int64) *RunsClearedEvent {
	return &RunsClearedEvent{
		baseEvent: baseEvent{timestamp: ts},
		Removed:   removed,
	}
}

// NewRunRemovedEvent constructs a RunRemovedEvent.
func NewRunRemovedEvent(runID string, ts int64) *RunRemovedEvent {
	return &RunRemovedEvent{baseEvent: baseEvent{runID: runID, timestamp: ts}}
}

// RunID returns the run identifier the event pertains to (empty for
// RunsClearedEvent).
func (e baseEvent) RunID() string { return e.runID }

// Timestamp returns the event time in Unix milliseconds.
func (e baseEvent) Timestamp() int64 { return e.timestamp }

func (e *RunStartedEvent) Type() EventType  { return RunStarted }
func (e *RunEvictedEvent) Type() EventType  { return RunEvicted }
func (e *CellUpdatedEvent) Type() EventType { return CellUpdated }
func (e *RunsClearedEvent) Type() EventType { return RunsCleared }
func (e *RunRemovedEvent) Type() EventType  { return RunRemoved }
