package state

import (
	"context"
	"sort"
	"sync"

	"legacy-mirror/core/registry"
)

// Ensure MemoryStore implements the interface.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used by dry runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Watermark
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Watermark)}
}

func (s *MemoryStore) Get(_ context.Context, table string) (*Watermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.rows[table]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Watermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Watermark, 0, len(s.rows))
	for _, w := range s.rows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out, nil
}

func (s *MemoryStore) Synchronized(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]struct{})
	for name, w := range s.rows {
		if w.Synced() {
			set[name] = struct{}{}
		}
	}
	return set, nil
}

func (s *MemoryStore) RecordRun(_ context.Context, run Run) (*Watermark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.rows[run.Table]
	if !ok {
		w = Watermark{Table: run.Table}
	}
	w.apply(run)
	s.rows[run.Table] = w
	return &w, nil
}

func (s *MemoryStore) Reset(_ context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.rows[table]
	if !ok {
		return ErrNotFound
	}
	w.LastSyncedAt = nil
	w.LastErrorSummary = nil
	s.rows[table] = w
	return nil
}

func (s *MemoryStore) SetOverrides(_ context.Context, table string, o registry.Overrides) error {
	meta, err := encodeOverrides(o)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.rows[table]
	if !ok {
		w = Watermark{Table: table}
	}
	w.Metadata = meta
	s.rows[table] = w
	return nil
}
