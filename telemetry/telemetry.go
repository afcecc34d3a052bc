// Package telemetry defines the logging and metrics seams used by the
// dispatch layer. Implementations back them with goa.design/clue logging and
// OpenTelemetry metrics; no-op implementations are the defaults so the
// tracker stays dependency-free for callers that don't need observability.
package telemetry

import "context"

type (
	// Logger emits structured log entries.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters for tracker activity.
	Metrics interface {
		// IncCounter adds value to the named counter. Tags are alternating
		// key/value pairs.
		IncCounter(name string, value float64, tags ...string)
	}

	noopLogger  struct{}
	noopMetrics struct{}
)

// Counter names recorded by the dispatch layer.
const (
	// MetricEventsIngested counts cell events applied to the tracker.
	MetricEventsIngested = "runtrack.events.ingested"
	// MetricEventsRejected counts events rejected at the validation boundary.
	MetricEventsRejected = "runtrack.events.rejected"
	// MetricRunsEvicted counts runs dropped by the retention bound.
	MetricRunsEvicted = "runtrack.runs.evicted"
)

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return noopLogger{} }

// NewNoopMetrics returns a Metrics recorder that discards everything.
func NewNoopMetrics() Metrics { return noopMetrics{} }

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}

func (noopMetrics) IncCounter(string, float64, ...string) {}
