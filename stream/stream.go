// Package stream contains streaming abstractions for delivering tracker
// updates to clients.
package stream

import "context"

// Sink delivers tracker updates (cell status changes, clears, removals) to
// clients.
type Sink interface {
	Send(ctx context.Context, event Event) error
	Close(ctx context.Context) error
}

// EventType enumerates stream payload flavors.
type EventType string

const (
	// EventCellUpdate streams per-cell status/timing updates.
	EventCellUpdate EventType = "cell_update"
	// EventRunEvicted streams bounded-history evictions so clients can drop
	// stale run views.
	EventRunEvicted EventType = "run_evicted"
	// EventRunsCleared streams history resets.
	EventRunsCleared EventType = "runs_cleared"
	// EventRunRemoved streams single-run removals.
	EventRunRemoved EventType = "run_removed"
)

// Event is the payload sent across the streaming channel.
type Event struct {
	// Type indicates the kind of streaming event emitted.
	Type EventType
	// RunID ties the event to a tracked run. Empty for EventRunsCleared.
	RunID string
	// Content carries the event-specific payload (cell summary, evicting run
	// ID, removed-run count, etc.).
	Content any
}
