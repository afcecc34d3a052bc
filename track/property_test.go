package track_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/cellflow/runtrack/event"
	"github.com/cellflow/runtrack/track"
)

// ingestStep is one randomly generated IngestCellEvent call.
type ingestStep struct {
	RunID  string
	CellID string
	Delta  int64
	Status event.Status
	Stderr bool
	Code   string
}

func genIngestStep() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 150),  // run index, wide enough to overflow MaxRuns
		gen.IntRange(0, 5),    // cell index
		gen.Int64Range(0, 1e6),
		gen.OneConstOf(event.Status(""), event.StatusQueued, event.StatusRunning, event.StatusSuccess, event.StatusError),
		gen.Bool(),
		gen.AlphaString(),
	).Map(func(vals []interface{}) ingestStep {
		return ingestStep{
			RunID:  "run-" + string(rune('a'+vals[0].(int)%26)) + string(rune('a'+vals[0].(int)/26)),
			CellID: "cell-" + string(rune('a'+vals[1].(int))),
			Delta:  vals[2].(int64),
			Status: vals[3].(event.Status),
			Stderr: vals[4].(bool),
			Code:   vals[5].(string),
		}
	})
}

func applyStep(state track.RunsState, step ingestStep, ts int64) track.RunsState {
	evt := event.CellEvent{
		RunID:     step.RunID,
		CellID:    step.CellID,
		Timestamp: ts,
		Status:    step.Status,
	}
	if step.Stderr {
		evt.Output = &event.Output{Channel: event.ChannelStderr}
	}
	return state.IngestCellEvent(evt, step.Code)
}

// TestBoundAndConsistencyProperty verifies that for any event sequence the
// ordering and the lookup index stay consistent and the run count never
// exceeds MaxRuns after any single call.
func TestBoundAndConsistencyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("run count bounded and ids consistent with lookups", prop.ForAll(
		func(steps []ingestStep) bool {
			state := track.New()
			var ts int64
			for _, step := range steps {
				ts += step.Delta
				state = applyStep(state, step, ts)

				ids := state.RunIDs()
				if len(ids) > track.MaxRuns {
					return false
				}
				if len(ids) != state.Len() {
					return false
				}
				seen := make(map[string]bool, len(ids))
				for _, id := range ids {
					if seen[id] {
						return false // duplicate id in ordering
					}
					seen[id] = true
					if _, ok := state.Run(id); !ok {
						return false // ordered id missing from lookup
					}
				}
			}
			return true
		},
		gen.SliceOf(genIngestStep()),
	))

	properties.TestingRun(t)
}

// TestStoredCodeBoundedProperty verifies stored code never exceeds
// MaxCodeLength characters for any input length.
func TestStoredCodeBoundedProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("cell code bounded to MaxCodeLength", prop.ForAll(
		func(chunk string, repeat int) bool {
			code := strings.Repeat(chunk+"é", repeat)
			state := track.New()
			state = state.IngestCellEvent(event.CellEvent{RunID: "r", CellID: "c", Timestamp: 1}, code)
			r, ok := state.Run("r")
			if !ok {
				return false
			}
			stored := r.CellRuns[0].Code
			if utf8.RuneCountInString(stored) > track.MaxCodeLength {
				return false
			}
			if utf8.RuneCountInString(code) <= track.MaxCodeLength {
				return stored == code
			}
			return utf8.RuneCountInString(stored) == track.MaxCodeLength
		},
		gen.AnyString(),
		gen.IntRange(0, 2*track.MaxCodeLength),
	))

	properties.TestingRun(t)
}

// TestErrorAbsorbingProperty verifies that once any cell reaches StatusError
// no later event sequence can downgrade it.
func TestErrorAbsorbingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("error status never downgraded", prop.ForAll(
		func(steps []ingestStep) bool {
			state := track.New()
			errored := make(map[string]bool) // runID/cellID pairs that reached error
			var ts int64
			for _, step := range steps {
				ts += step.Delta
				if _, existed := state.Run(step.RunID); !existed {
					// A run ID can reappear after eviction as a brand new run;
					// its cells start over.
					for k := range errored {
						if strings.HasPrefix(k, step.RunID+"/") {
							delete(errored, k)
						}
					}
				}
				state = applyStep(state, step, ts)

				r, ok := state.Run(step.RunID)
				if !ok {
					continue // the run this step created may have been evicted
				}
				key := step.RunID + "/" + step.CellID
				for _, cr := range r.CellRuns {
					if cr.CellID != step.CellID {
						continue
					}
					if errored[key] && cr.Status != event.StatusError {
						return false
					}
					if cr.Status == event.StatusError {
						errored[key] = true
					}
				}
			}
			return true
		},
		gen.SliceOf(genIngestStep()),
	))

	properties.TestingRun(t)
}
