// Package dispatch owns the authoritative run tracker state for a session.
//
// The track reducer is pure; something must own its state, serialize
// transitions, validate input at the boundary, and tell the rest of the
// system what changed. Dispatcher is that owner: it guards a single RunsState
// behind a mutex, applies transitions in arrival order, publishes lifecycle
// events on a hooks.Bus, and optionally mirrors run summaries into a
// snapshot.Store.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/cellflow/runtrack/event"
	"github.com/cellflow/runtrack/hooks"
	"github.com/cellflow/runtrack/snapshot"
	"github.com/cellflow/runtrack/telemetry"
	"github.com/cellflow/runtrack/track"
)

type (
	// Dispatcher serializes tracker transitions and fans out their effects.
	// Safe for concurrent use; callers from multiple goroutines are applied
	// one at a time in lock-acquisition order.
	Dispatcher struct {
		mu      sync.Mutex
		state   track.RunsState
		bus     *hooks.Bus
		store   snapshot.Store
		logger  telemetry.Logger
		metrics telemetry.Metrics
	}

	// Option configures a Dispatcher.
	Option func(*Dispatcher)
)

// WithBus publishes lifecycle events on the given bus. Without a bus the
// dispatcher creates its own; retrieve it with Bus.
func WithBus(bus *hooks.Bus) Option {
	return func(d *Dispatcher) { d.bus = bus }
}

// WithSnapshotStore mirrors applied transitions into the store: every ingest
// upserts the affected run's summary, Remove deletes it, Clear resets the
// store.
func WithSnapshotStore(store snapshot.Store) Option {
	return func(d *Dispatcher) { d.store = store }
}

// WithLogger sets the structured logger. Defaults to a no-op.
func WithLogger(logger telemetry.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMetrics sets the metrics recorder. Defaults to a no-op.
func WithMetrics(metrics telemetry.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = metrics }
}

// New constructs a Dispatcher with an empty tracker state.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		state:   track.New(),
		logger:  telemetry.NewNoopLogger(),
		metrics: telemetry.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.bus == nil {
		d.bus = hooks.NewBus()
	}
	return d
}

// Bus returns the bus lifecycle events are published on.
func (d *Dispatcher) Bus() *hooks.Bus {
	return d.bus
}

// Ingest validates evt, folds it into the tracker, publishes the resulting
// lifecycle events, and mirrors the affected run into the snapshot store.
// Malformed events are rejected before they reach the reducer.
func (d *Dispatcher) Ingest(ctx context.Context, evt event.CellEvent, code string) error {
	if err := evt.Validate(); err != nil {
		d.metrics.IncCounter(telemetry.MetricEventsRejected, 1)
		d.logger.Warn(ctx, "cell event rejected", "run_id", evt.RunID, "cell_id", evt.CellID, "err", err)
		return fmt.Errorf("ingest: %w", err)
	}

	d.mu.Lock()
	prev := d.state
	_, existed := prev.Run(evt.RunID)
	next := prev.IngestCellEvent(evt, code)
	d.state = next
	d.mu.Unlock()

	var published []hooks.Event
	if !existed {
		published = append(published, hooks.NewRunStartedEvent(evt.RunID, evt.Timestamp))
		if evicted, ok := evictedRun(prev, next, evt.RunID); ok {
			published = append(published, hooks.NewRunEvictedEvent(evicted, evt.RunID, evt.Timestamp))
			d.metrics.IncCounter(telemetry.MetricRunsEvicted, 1)
		}
	}
	if cr, ok := cellRun(next, evt.RunID, evt.CellID); ok {
		var channel event.Channel
		if evt.Output != nil {
			channel = evt.Output.Channel
		}
		published = append(published, hooks.NewCellUpdatedEvent(evt.RunID, evt.Timestamp, cr, channel))
	}

	d.metrics.IncCounter(telemetry.MetricEventsIngested, 1)
	d.logger.Debug(ctx, "cell event ingested", "run_id", evt.RunID, "cell_id", evt.CellID, "new_run", !existed)

	if d.store != nil {
		if r, ok := next.Run(evt.RunID); ok {
			if err := d.store.Upsert(ctx, toRecord(r, evt.Timestamp)); err != nil {
				d.logger.Error(ctx, "snapshot upsert failed", "run_id", evt.RunID, "err", err)
			}
		}
	}
	return d.publish(ctx, published)
}

// Clear resets the tracked history.
func (d *Dispatcher) Clear(ctx context.Context, ts int64) error {
	d.mu.Lock()
	removed := d.state.Len()
	d.state = d.state.ClearRuns()
	d.mu.Unlock()

	if d.store != nil {
		d.store.Reset()
	}
	d.logger.Info(ctx, "runs cleared", "removed", removed)
	return d.publish(ctx, []hooks.Event{hooks.NewRunsClearedEvent(removed, ts)})
}

// Remove drops a single run. Removing an unknown run is a no-op and publishes
// nothing.
func (d *Dispatcher) Remove(ctx context.Context, runID string, ts int64) error {
	d.mu.Lock()
	_, existed := d.state.Run(runID)
	if existed {
		d.state = d.state.RemoveRun(runID)
	}
	d.mu.Unlock()

	if !existed {
		return nil
	}
	if d.store != nil {
		if err := d.store.Delete(ctx, runID); err != nil {
			d.logger.Error(ctx, "snapshot delete failed", "run_id", runID, "err", err)
		}
	}
	d.logger.Info(ctx, "run removed", "run_id", runID)
	return d.publish(ctx, []hooks.Event{hooks.NewRunRemovedEvent(runID, ts)})
}

// Snapshot returns the current tracker state. The returned value is
// independent of the dispatcher's state; later transitions do not affect it.
func (d *Dispatcher) Snapshot() track.RunsState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// RunIDs returns the tracked run identifiers newest-first.
func (d *Dispatcher) RunIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.RunIDs()
}

// Run returns the run with the given identifier, if tracked.
func (d *Dispatcher) Run(runID string) (track.Run, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Run(runID)
}

// publish delivers events outside the state lock so subscribers can read the
// dispatcher without deadlocking.
func (d *Dispatcher) publish(ctx context.Context, events []hooks.Event) error {
	for _, evt := range events {
		if err := d.bus.Publish(ctx, evt); err != nil {
			d.logger.Error(ctx, "event publish failed", "type", string(evt.Type()), "run_id", evt.RunID(), "err", err)
			return fmt.Errorf("publish %s: %w", evt.Type(), err)
		}
	}
	return nil
}

// evictedRun finds the run present in prev but absent from next, other than
// inserted. There is at most one: insertion grows the set by one and evicts
// at most one.
func evictedRun(prev, next track.RunsState, inserted string) (string, bool) {
	if next.Len() > prev.Len() {
		return "", false
	}
	for _, id := range prev.RunIDs() {
		if id == inserted {
			continue
		}
		if _, ok := next.Run(id); !ok {
			return id, true
		}
	}
	return "", false
}

func cellRun(s track.RunsState, runID, cellID string) (track.CellRun, bool) {
	r, ok := s.Run(runID)
	if !ok {
		return track.CellRun{}, false
	}
	for _, cr := range r.CellRuns {
		if cr.CellID == cellID {
			return cr, true
		}
	}
	return track.CellRun{}, false
}

func toRecord(r track.Run, updatedAt int64) snapshot.Record {
	cells := make([]snapshot.Cell, len(r.CellRuns))
	for i, cr := range r.CellRuns {
		cells[i] = snapshot.Cell{
			CellID:      cr.CellID,
			Code:        cr.Code,
			StartTime:   cr.StartTime,
			ElapsedTime: cr.ElapsedTime,
			Status:      cr.Status,
		}
	}
	return snapshot.Record{
		RunID:        r.RunID,
		RunStartTime: r.RunStartTime,
		UpdatedAt:    updatedAt,
		Cells:        cells,
	}
}
