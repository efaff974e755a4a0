package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"finanzas/internal/sheets"
)

// Store keeps exported rows in memory. It backs EXPORT_BACKEND=memory and tests.
type Store struct {
	mu     sync.Mutex
	rows   map[int64]sheets.Row
	writes int
}

var _ sheets.MovementExporter = (*Store)(nil)

func New() *Store {
	return &Store{rows: make(map[int64]sheets.Row)}
}

// Upsert stores the row and returns a synthetic row reference.
func (s *Store) Upsert(_ context.Context, r sheets.Row) (string, error) {
	if r.ID <= 0 {
		return "", fmt.Errorf("invalid movement id %d", r.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[r.ID] = r
	s.writes++
	return fmt.Sprintf("mem:%d", r.ID), nil
}

func (s *Store) Delete(_ context.Context, movementID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, movementID)
	return nil
}

// Rows returns a snapshot ordered by movement id.
func (s *Store) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheets.Row, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Writes counts successful upserts.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
