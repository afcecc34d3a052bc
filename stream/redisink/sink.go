// Package redisink exposes a stream.Sink implementation that publishes
// tracker updates to Redis streams. It mirrors the layering used by existing
// deployments: services build a Redis client and hand the resulting sink to
// the dispatch layer, which forwards lifecycle events through a
// hooks.StreamSubscriber.
package redisink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cellflow/runtrack/stream"
)

type (
	// Client is the subset of the go-redis API the sink needs. Satisfied by
	// *redis.Client, *redis.ClusterClient, and redis.UniversalClient.
	Client interface {
		XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	}

	// Options configures the Redis sink.
	Options struct {
		// Client is the Redis client used to publish events. Required.
		Client Client
		// StreamID derives the target stream from an event. Defaults to
		// `run/<RunID>`, or `runs` for events without a run ID.
		StreamID func(stream.Event) (string, error)
		// MaxLen caps each stream's approximate length via XADD MAXLEN ~.
		// Zero disables trimming.
		MaxLen int64
		// MarshalEnvelope allows overriding the envelope serialization
		// (primarily for tests).
		MarshalEnvelope func(envelope) ([]byte, error)
	}

	// Sink publishes stream.Event values into Redis streams. Thread-safe for
	// concurrent Send operations.
	Sink struct {
		client Client
		opts   sinkOptions
	}

	// sinkOptions holds internal configuration derived from Options.
	sinkOptions struct {
		streamID        func(stream.Event) (string, error)
		maxLen          int64
		marshalEnvelope func(envelope) ([]byte, error)
	}

	// envelope wraps tracker events for transmission over Redis streams.
	envelope struct {
		// Type identifies the event kind (e.g., "cell_update", "runs_cleared").
		Type string `json:"type"`
		// RunID links the event to a tracked run, if any.
		RunID string `json:"run_id,omitempty"`
		// Timestamp records when the event was published (UTC).
		Timestamp time.Time `json:"timestamp"`
		// Payload contains the event-specific data, if any.
		Payload any `json:"payload,omitempty"`
	}
)

// NewSink constructs a Redis-backed stream sink. The Client field in opts is
// required; StreamID and MarshalEnvelope default to the built-in
// implementations if not provided.
func NewSink(opts Options) (*Sink, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	cfg := sinkOptions{
		streamID:        defaultStreamID,
		maxLen:          opts.MaxLen,
		marshalEnvelope: defaultMarshal,
	}
	if opts.StreamID != nil {
		cfg.streamID = opts.StreamID
	}
	if opts.MarshalEnvelope != nil {
		cfg.marshalEnvelope = opts.MarshalEnvelope
	}
	return &Sink{client: opts.Client, opts: cfg}, nil
}

// Send publishes the event to the derived Redis stream as a JSON envelope.
func (s *Sink) Send(ctx context.Context, event stream.Event) error {
	streamID, err := s.opts.streamID(event)
	if err != nil {
		return fmt.Errorf("derive stream ID: %w", err)
	}
	payload, err := s.opts.marshalEnvelope(envelope{
		Type:      string(event.Type),
		RunID:     event.RunID,
		Timestamp: time.Now().UTC(),
		Payload:   event.Content,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: streamID,
		Values: map[string]any{
			"event":   string(event.Type),
			"payload": payload,
		},
	}
	if s.opts.maxLen > 0 {
		args.MaxLen = s.opts.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish to stream %q: %w", streamID, err)
	}
	return nil
}

// Close implements stream.Sink. The Redis client is owned by the caller, so
// Close does not release it.
func (s *Sink) Close(context.Context) error {
	return nil
}

func defaultStreamID(event stream.Event) (string, error) {
	if event.RunID == "" {
		return "runs", nil
	}
	return "run/" + event.RunID, nil
}

func defaultMarshal(env envelope) ([]byte, error) {
	return json.Marshal(env)
}
