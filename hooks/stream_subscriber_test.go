package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cellflow/runtrack/event"
	"github.com/cellflow/runtrack/stream"
	"github.com/cellflow/runtrack/track"
)

// recordingSink captures stream events for assertions.
type recordingSink struct {
	events []stream.Event
	closed bool
}

func (s *recordingSink) Send(_ context.Context, evt stream.Event) error {
	s.events = append(s.events, evt)
	return nil
}

func (s *recordingSink) Close(context.Context) error {
	s.closed = true
	return nil
}

func TestStreamSubscriberRequiresSink(t *testing.T) {
	_, err := NewStreamSubscriber(nil)
	require.Error(t, err)
}

func TestStreamSubscriberForwardsCellUpdates(t *testing.T) {
	sink := &recordingSink{}
	sub, err := NewStreamSubscriber(sink)
	require.NoError(t, err)

	cr := track.CellRun{CellID: "c1", Status: event.StatusRunning, StartTime: 100, ElapsedTime: 50}
	require.NoError(t, sub.HandleEvent(context.Background(), NewCellUpdatedEvent("run1", 150, cr, "")))

	require.Len(t, sink.events, 1)
	require.Equal(t, stream.EventCellUpdate, sink.events[0].Type)
	require.Equal(t, "run1", sink.events[0].RunID)
	require.Equal(t, cr, sink.events[0].Content)
}

func TestStreamSubscriberForwardsLifecycle(t *testing.T) {
	sink := &recordingSink{}
	sub, err := NewStreamSubscriber(sink)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sub.HandleEvent(ctx, NewRunEvictedEvent("old", "new", 100)))
	require.NoError(t, sub.HandleEvent(ctx, NewRunsClearedEvent(3, 200)))
	require.NoError(t, sub.HandleEvent(ctx, NewRunRemovedEvent("run1", 300)))

	require.Len(t, sink.events, 3)
	require.Equal(t, stream.EventRunEvicted, sink.events[0].Type)
	require.Equal(t, "old", sink.events[0].RunID)
	require.Equal(t, "new", sink.events[0].Content)
	require.Equal(t, stream.EventRunsCleared, sink.events[1].Type)
	require.Equal(t, 3, sink.events[1].Content)
	require.Equal(t, stream.EventRunRemoved, sink.events[2].Type)
}

func TestStreamSubscriberIgnoresRunStarted(t *testing.T) {
	sink := &recordingSink{}
	sub, err := NewStreamSubscriber(sink)
	require.NoError(t, err)

	require.NoError(t, sub.HandleEvent(context.Background(), NewRunStartedEvent("run1", 100)))
	require.Empty(t, sink.events)
}
