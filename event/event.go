// Package event defines the cell execution event vocabulary shared by the
// run tracker and its collaborators. Events are produced by the execution
// engine, validated at the dispatch boundary, and folded into run summaries
// by the track package.
package event

import (
	"errors"
	"fmt"
)

type (
	// CellEvent reports one observation about a cell executing within a run.
	// RunID and CellID are required; everything else is optional.
	CellEvent struct {
		// RunID groups the cells executed together as one run.
		RunID string
		// CellID identifies the cell within the run.
		CellID string
		// Timestamp is the event time in Unix milliseconds. Producers emit
		// nondecreasing timestamps within a run.
		Timestamp int64
		// Status is the lifecycle state reported by the engine. Empty means the
		// event carries no status change of its own.
		Status Status
		// Output carries console output attached to the event, if any. Output
		// on an error channel forces the cell's status to StatusError.
		Output *Output
	}

	// Output is a chunk of console output attached to a cell event.
	Output struct {
		// Channel names the output channel (stdout, stderr, marimo-error, ...).
		Channel Channel
		// Text is the raw output text. May be empty for channel-only signals.
		Text string
	}

	// Status is the lifecycle state of a cell execution.
	Status string

	// Channel names an output channel on a cell event.
	Channel string
)

const (
	// StatusQueued indicates the cell is waiting to execute.
	StatusQueued Status = "queued"
	// StatusRunning indicates the cell is actively executing.
	StatusRunning Status = "running"
	// StatusSuccess indicates the cell finished without error.
	StatusSuccess Status = "success"
	// StatusError indicates the cell failed. Error is absorbing: once a cell
	// reaches it, later events cannot downgrade it.
	StatusError Status = "error"
)

const (
	// ChannelStdout carries ordinary console output.
	ChannelStdout Channel = "stdout"
	// ChannelStderr carries error output. Forces StatusError.
	ChannelStderr Channel = "stderr"
	// ChannelMarimoError carries structured engine errors. Forces StatusError.
	ChannelMarimoError Channel = "marimo-error"
)

var (
	// ErrMissingRunID reports an event without a run identifier.
	ErrMissingRunID = errors.New("cell event: missing run ID")
	// ErrMissingCellID reports an event without a cell identifier.
	ErrMissingCellID = errors.New("cell event: missing cell ID")
)

// Validate checks the event satisfies the tracker's input contract. The
// tracker reducer assumes validated input; callers reject malformed events at
// the boundary instead of handing them to the reducer.
func (e CellEvent) Validate() error {
	if e.RunID == "" {
		return ErrMissingRunID
	}
	if e.CellID == "" {
		return ErrMissingCellID
	}
	if e.Timestamp < 0 {
		return fmt.Errorf("cell event: negative timestamp %d", e.Timestamp)
	}
	return nil
}

// EffectiveStatus derives the status a cell ends up with after applying this
// event on top of its prior status:
//
//   - a prior StatusError is absorbing and always wins,
//   - output on stderr or marimo-error forces StatusError regardless of the
//     event's own Status field,
//   - otherwise the event's Status applies if present,
//   - otherwise the prior status is retained.
//
// For a cell's first event prior is empty; if nothing on the event determines
// a status the cell starts out StatusQueued.
func (e CellEvent) EffectiveStatus(prior Status) Status {
	if prior == StatusError {
		return StatusError
	}
	if e.Output != nil && (e.Output.Channel == ChannelStderr || e.Output.Channel == ChannelMarimoError) {
		return StatusError
	}
	if e.Status != "" {
		return e.Status
	}
	if prior == "" {
		return StatusQueued
	}
	return prior
}
