// Package inmem provides an in-memory snapshot store suitable for tests and
// single-process deployments.
package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/cellflow/runtrack/snapshot"
)

// Store is a mutex-guarded in-memory snapshot.Store.
type Store struct {
	mu      sync.RWMutex
	records map[string]snapshot.Record
}

var _ snapshot.Store = (*Store)(nil)

// New constructs an empty store.
func New() *Store {
	return &Store{records: make(map[string]snapshot.Record)}
}

// Upsert writes the record, replacing any previous version.
func (s *Store) Upsert(_ context.Context, rec snapshot.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.RunID] = copyRecord(rec)
	return nil
}

// Load retrieves the record for runID. Unknown runs yield a zero Record.
func (s *Store) Load(_ context.Context, runID string) (snapshot.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[runID]
	if !ok {
		return snapshot.Record{}, nil
	}
	return copyRecord(rec), nil
}

// List returns all records newest-first by RunStartTime.
func (s *Store) List(_ context.Context) ([]snapshot.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]snapshot.Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, copyRecord(rec))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].RunStartTime != records[j].RunStartTime {
			return records[i].RunStartTime > records[j].RunStartTime
		}
		return records[i].RunID < records[j].RunID
	})
	return records, nil
}

// Delete removes the record for runID if present.
func (s *Store) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, runID)
	return nil
}

// Reset drops all records.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]snapshot.Record)
}

func copyRecord(rec snapshot.Record) snapshot.Record {
	cells := make([]snapshot.Cell, len(rec.Cells))
	copy(cells, rec.Cells)
	rec.Cells = cells
	return rec
}
