package memory

import (
	"context"
	"slices"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

var _ ports.Mirror = (*Store)(nil)

// Store keeps the mirrored log in memory. It stands in for the spreadsheet
// in tests and when no spreadsheet is configured.
type Store struct {
	mu     sync.Mutex
	rows   []core.Transaction
	writes int
}

func New() *Store {
	return &Store{}
}

func (s *Store) WriteTransactions(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = slices.Clone(txs)
	s.writes++
	return nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows), nil
}

// Writes reports how many times the log was replaced.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
