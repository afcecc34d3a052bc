// Package track implements an in-memory, append-only, size-bounded run
// tracker. It folds a stream of per-cell execution events into per-run
// summaries: runs are kept newest-first and bounded to MaxRuns, each run
// carries its cells in first-seen order with derived timing and status.
//
// RunsState is a value. Transitions never mutate the receiver; each returns a
// structurally independent state so callers holding earlier references (undo
// stacks, comparisons) observe no retroactive change. The tracker performs no
// I/O and is total over validated input; serializing calls is the caller's
// responsibility (see the dispatch package).
package track

import (
	"unicode/utf8"

	"github.com/cellflow/runtrack/event"
)

const (
	// MaxRuns bounds how many runs are retained. Inserting a run beyond the
	// bound evicts the oldest.
	MaxRuns = 100

	// MaxCodeLength bounds the stored source text per cell, in characters.
	MaxCodeLength = 1000
)

type (
	// CellRun summarizes one cell's execution within a run.
	CellRun struct {
		// CellID identifies the cell.
		CellID string
		// Code is the cell's source text at execution time, truncated to
		// MaxCodeLength characters.
		Code string
		// StartTime is the timestamp (Unix ms) of the cell's first observed
		// event. Never changes after creation.
		StartTime int64
		// ElapsedTime is the duration (ms) between StartTime and the cell's
		// latest observed event.
		ElapsedTime int64
		// Status is the cell's derived lifecycle state. StatusError is
		// absorbing.
		Status event.Status
	}

	// Run groups the cell executions observed under one run identifier.
	Run struct {
		// RunID identifies the run.
		RunID string
		// RunStartTime is the timestamp (Unix ms) of the first event received
		// for the run.
		RunStartTime int64
		// CellRuns lists cells in the order they were first seen within the
		// run. Later events for a known cell update its entry in place.
		CellRuns []CellRun
	}

	// RunsState is the bounded, newest-first collection of tracked runs. The
	// ordering and the lookup index are private to the type so they cannot
	// drift apart. The zero value is an empty, usable state.
	RunsState struct {
		ids  []string
		runs map[string]Run
	}
)

// New returns an empty RunsState.
func New() RunsState {
	return RunsState{runs: make(map[string]Run)}
}

// IngestCellEvent folds one cell event into the state and returns the result.
//
// A first-seen run is prepended to the newest-first ordering; if that pushes
// the run count past MaxRuns the oldest run is evicted. Events for a known run
// never change its position. Within a run, a first-seen cell is appended and a
// known cell is updated in place: elapsed time becomes evt.Timestamp minus the
// cell's start time, status follows event.CellEvent.EffectiveStatus, and code
// is replaced (truncated) when non-empty.
//
// The caller validates evt before dispatch; IngestCellEvent assumes RunID and
// CellID are set.
func (s RunsState) IngestCellEvent(evt event.CellEvent, code string) RunsState {
	next := s.clone()
	r, ok := next.runs[evt.RunID]
	if !ok {
		next.ids = append([]string{evt.RunID}, next.ids...)
		next.runs[evt.RunID] = Run{
			RunID:        evt.RunID,
			RunStartTime: evt.Timestamp,
			CellRuns:     []CellRun{newCellRun(evt, code)},
		}
		if len(next.ids) > MaxRuns {
			oldest := next.ids[len(next.ids)-1]
			next.ids = next.ids[:len(next.ids)-1]
			delete(next.runs, oldest)
		}
		return next
	}

	idx := -1
	for i := range r.CellRuns {
		if r.CellRuns[i].CellID == evt.CellID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.CellRuns = append(r.CellRuns, newCellRun(evt, code))
	} else {
		cr := &r.CellRuns[idx]
		cr.ElapsedTime = evt.Timestamp - cr.StartTime
		cr.Status = evt.EffectiveStatus(cr.Status)
		if code != "" {
			cr.Code = TruncateCode(code)
		}
	}
	next.runs[evt.RunID] = r
	return next
}

// ClearRuns returns an empty state.
func (s RunsState) ClearRuns() RunsState {
	return New()
}

// RemoveRun returns a state without the given run. Removing an absent run is
// a no-op and returns the receiver unchanged.
func (s RunsState) RemoveRun(runID string) RunsState {
	if _, ok := s.runs[runID]; !ok {
		return s
	}
	next := s.clone()
	delete(next.runs, runID)
	for i, id := range next.ids {
		if id == runID {
			next.ids = append(next.ids[:i], next.ids[i+1:]...)
			break
		}
	}
	return next
}

// RunIDs returns the tracked run identifiers newest-first. The slice is a
// copy; mutating it does not affect the state.
func (s RunsState) RunIDs() []string {
	ids := make([]string, len(s.ids))
	copy(ids, s.ids)
	return ids
}

// Run returns the run with the given identifier. The returned value is a
// defensive copy. The boolean reports whether the run exists.
func (s RunsState) Run(runID string) (Run, bool) {
	r, ok := s.runs[runID]
	if !ok {
		return Run{}, false
	}
	return copyRun(r), true
}

// Runs returns all tracked runs newest-first as defensive copies.
func (s RunsState) Runs() []Run {
	runs := make([]Run, 0, len(s.ids))
	for _, id := range s.ids {
		runs = append(runs, copyRun(s.runs[id]))
	}
	return runs
}

// Len reports the number of tracked runs.
func (s RunsState) Len() int {
	return len(s.ids)
}

// TruncateCode bounds source text to MaxCodeLength characters.
func TruncateCode(code string) string {
	if utf8.RuneCountInString(code) <= MaxCodeLength {
		return code
	}
	return string([]rune(code)[:MaxCodeLength])
}

func newCellRun(evt event.CellEvent, code string) CellRun {
	return CellRun{
		CellID:    evt.CellID,
		Code:      TruncateCode(code),
		StartTime: evt.Timestamp,
		Status:    evt.EffectiveStatus(""),
	}
}

// clone deep-copies the state so transitions never alias the receiver.
func (s RunsState) clone() RunsState {
	next := RunsState{
		ids:  make([]string, len(s.ids)),
		runs: make(map[string]Run, len(s.runs)),
	}
	copy(next.ids, s.ids)
	for id, r := range s.runs {
		next.runs[id] = copyRun(r)
	}
	return next
}

func copyRun(r Run) Run {
	cells := make([]CellRun, len(r.CellRuns))
	copy(cells, r.CellRuns)
	r.CellRuns = cells
	return r
}
