// Command demo feeds a scripted cell event sequence through a Dispatcher and
// prints the resulting run history. It shows the typical wiring: a hook bus
// subscriber for live updates, an in-memory snapshot store for the read
// model, and clue logging.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"goa.design/clue/log"

	"github.com/cellflow/runtrack/dispatch"
	"github.com/cellflow/runtrack/event"
	"github.com/cellflow/runtrack/hooks"
	"github.com/cellflow/runtrack/snapshot/inmem"
	"github.com/cellflow/runtrack/telemetry"
)

func main() {
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))

	store := inmem.New()
	d := dispatch.New(
		dispatch.WithSnapshotStore(store),
		dispatch.WithLogger(telemetry.NewClueLogger()),
		dispatch.WithMetrics(telemetry.NewOTELMetrics()),
	)

	sub := hooks.SubscriberFunc(func(ctx context.Context, evt hooks.Event) error {
		switch e := evt.(type) {
		case *hooks.CellUpdatedEvent:
			log.Print(ctx, log.KV{K: "cell", V: e.CellRun.CellID}, log.KV{K: "status", V: string(e.CellRun.Status)})
		case *hooks.RunEvictedEvent:
			log.Print(ctx, log.KV{K: "evicted", V: e.RunID()})
		}
		return nil
	})
	subscription, err := d.Bus().Register(sub)
	if err != nil {
		log.Fatal(ctx, err)
	}
	defer subscription.Close()

	runID := uuid.NewString()
	now := time.Now().UnixMilli()
	script := []struct {
		evt  event.CellEvent
		code string
	}{
		{event.CellEvent{RunID: runID, CellID: "cell-1", Timestamp: now, Status: event.StatusQueued}, "import polars as pd"},
		{event.CellEvent{RunID: runID, CellID: "cell-1", Timestamp: now + 40, Status: event.StatusRunning}, ""},
		{event.CellEvent{RunID: runID, CellID: "cell-2", Timestamp: now + 45, Status: event.StatusQueued}, "df = pd.read_csv('data.csv')"},
		{event.CellEvent{RunID: runID, CellID: "cell-1", Timestamp: now + 120, Status: event.StatusSuccess}, ""},
		{event.CellEvent{RunID: runID, CellID: "cell-2", Timestamp: now + 300, Output: &event.Output{Channel: event.ChannelStderr, Text: "FileNotFoundError"}}, ""},
	}
	for _, step := range script {
		if err := d.Ingest(ctx, step.evt, step.code); err != nil {
			log.Fatal(ctx, err)
		}
	}

	for _, r := range d.Snapshot().Runs() {
		fmt.Printf("run %s (started %d)\n", r.RunID, r.RunStartTime)
		for _, cr := range r.CellRuns {
			fmt.Printf("  %-8s %-8s %4dms  %s\n", cr.CellID, cr.Status, cr.ElapsedTime, cr.Code)
		}
	}
}
