// Package hooks implements fan-out hooks for tracker observability.
//
// The hooks package provides an event bus that lets the dispatch layer publish
// tracker lifecycle events (run creation, cell updates, evictions, clears) to
// multiple subscribers. This decouples event producers (the dispatcher) from
// consumers (UI renderers, snapshot mirrors, stream sinks, telemetry).
//
// The primary types are:
//   - Bus: the event bus for publishing and subscribing
//   - Event: the interface all lifecycle events implement
//   - Subscriber: the interface implementations must satisfy to receive events
//   - Subscription: a handle for unregistering from the bus
//
// Typical usage pattern:
//
//	bus := hooks.NewBus()
//
//	sub := hooks.SubscriberFunc(func(ctx context.Context, evt hooks.Event) error {
//	    if evt.Type() == hooks.RunStarted {
//	        fmt.Printf("run %s started\n", evt.RunID())
//	    }
//	    return nil
//	})
//	subscription, _ := bus.Register(sub)
//	defer subscription.Close()
package hooks

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

type (
	// Subscriber receives lifecycle events published on the bus.
	Subscriber interface {
		HandleEvent(ctx context.Context, event Event) error
	}

	// SubscriberFunc is an adapter that allows ordinary functions to act as
	// Subscribers. Useful for quick prototypes, tests, or simple handlers that
	// don't require stateful subscriber implementations.
	SubscriberFunc func(ctx context.Context, event Event) error

	// Subscription is a handle to a registered subscriber. Closing it stops
	// event delivery.
	Subscription struct {
		id  string
		bus *Bus
	}

	// Bus fans events out to registered subscribers. Safe for concurrent use.
	Bus struct {
		mu   sync.RWMutex
		subs map[string]Subscriber
	}
)

// EventType enumerates the tracker lifecycle events broadcast on the bus.
type EventType string

const (
	// RunStarted fires when a first event for a new run is ingested.
	RunStarted EventType = "run_started"

	// RunEvicted fires when a run is dropped because inserting a new run
	// exceeded the retention bound.
	RunEvicted EventType = "run_evicted"

	// CellUpdated fires whenever a cell entry is created or updated within a
	// run, carrying the derived status and timing.
	CellUpdated EventType = "cell_updated"

	// RunsCleared fires when the whole tracked history is reset.
	RunsCleared EventType = "runs_cleared"

	// RunRemoved fires when a single run is explicitly removed.
	RunRemoved EventType = "run_removed"
)

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]Subscriber)}
}

// Register adds a subscriber to the bus and returns its subscription handle.
// Returns an error if sub is nil.
func (b *Bus) Register(sub Subscriber) (*Subscription, error) {
	if sub == nil {
		return nil, errors.New("subscriber is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.NewString()
	b.subs[id] = sub
	return &Subscription{id: id, bus: b}, nil
}

// Publish delivers the event to every registered subscriber. Subscriber
// errors do not stop fan-out; they are aggregated and returned after all
// subscribers have been invoked.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.HandleEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close unregisters the subscriber. Closing an already-closed subscription is
// a no-op.
func (s *Subscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
	return nil
}

// HandleEvent implements Subscriber by invoking the function.
func (fn SubscriberFunc) HandleEvent(ctx context.Context, event Event) error {
	return fn(ctx, event)
}
