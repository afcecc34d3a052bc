package hooks

import (
	"context"
	"errors"

	"github.com/cellflow/runtrack/stream"
)

type (
	// StreamSubscriber is a Subscriber implementation that bridges hook events
	// to a stream.Sink, enabling real-time updates to be pushed to clients
	// (e.g., via Server-Sent Events, WebSockets, or a Redis stream).
	//
	// RunStartedEvent is not forwarded: the CellUpdatedEvent published for the
	// same ingest already carries everything a client needs to render the new
	// run.
	StreamSubscriber struct {
		sink stream.Sink
	}
)

// NewStreamSubscriber constructs a subscriber that forwards hook events to the
// provided stream sink. Returns an error if sink is nil.
//
// Example:
//
//	sub, err := hooks.NewStreamSubscriber(sink)
//	if err != nil {
//	    return err
//	}
//	subscription, _ := bus.Register(sub)
//	defer subscription.Close()
func NewStreamSubscriber(sink stream.Sink) (Subscriber, error) {
	if sink == nil {
		return nil, errors.New("stream sink is required")
	}
	return &StreamSubscriber{sink: sink}, nil
}

// HandleEvent implements the Subscriber interface by translating hook events
// into stream events and forwarding them to the configured sink. Sink errors
// propagate to the bus so streaming failures stay visible.
func (s *StreamSubscriber) HandleEvent(ctx context.Context, event Event) error {
	switch evt := event.(type) {
	case *CellUpdatedEvent:
		return s.sink.Send(ctx, stream.Event{
			Type:    stream.EventCellUpdate,
			RunID:   evt.RunID(),
			Content: evt.CellRun,
		})
	case *RunEvictedEvent:
		return s.sink.Send(ctx, stream.Event{
			Type:    stream.EventRunEvicted,
			RunID:   evt.RunID(),
			Content: evt.EvictedBy,
		})
	case *RunsClearedEvent:
		return s.sink.Send(ctx, stream.Event{
			Type:    stream.EventRunsCleared,
			Content: evt.Removed,
		})
	case *RunRemovedEvent:
		return s.sink.Send(ctx, stream.Event{
			Type:  stream.EventRunRemoved,
			RunID: evt.RunID(),
		})
	default:
		return nil
	}
}
