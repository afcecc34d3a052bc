// Package snapshot defines persistence contracts for tracked run summaries.
// Stores hold a read model of the tracker's state so run history can be
// inspected outside the owning session (dashboards, debugging tools).
package snapshot

import (
	"context"

	"github.com/cellflow/runtrack/event"
)

type (
	// Record captures a run summary at a point in time.
	Record struct {
		// RunID identifies the run.
		RunID string
		// RunStartTime is the run's start timestamp (Unix ms).
		RunStartTime int64
		// UpdatedAt is the timestamp (Unix ms) of the latest event folded into
		// the run.
		UpdatedAt int64
		// Cells lists per-cell summaries in first-seen order.
		Cells []Cell
	}

	// Cell is one cell's summary within a Record.
	Cell struct {
		// CellID identifies the cell.
		CellID string
		// Code is the (truncated) source text of the cell.
		Code string
		// StartTime is the cell's first-event timestamp (Unix ms).
		StartTime int64
		// ElapsedTime is the duration (ms) between the cell's first and latest
		// events.
		ElapsedTime int64
		// Status is the cell's derived lifecycle state.
		Status event.Status
	}

	// Store persists run summaries. Implementations must be safe for
	// concurrent use and must not let callers mutate stored state through
	// returned values.
	Store interface {
		// Upsert writes the record, replacing any previous version.
		Upsert(ctx context.Context, rec Record) error
		// Load retrieves the record for runID. Returns a zero Record (not an
		// error) if the run is unknown.
		Load(ctx context.Context, runID string) (Record, error)
		// List returns all records ordered by RunStartTime, newest first.
		List(ctx context.Context) ([]Record, error)
		// Delete removes the record for runID. Deleting an unknown run is a
		// no-op.
		Delete(ctx context.Context, runID string) error
		// Reset drops all records.
		Reset()
	}
)
