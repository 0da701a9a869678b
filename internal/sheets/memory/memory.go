// Package memory is an in-process sheets.ExpenseWriter for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

var _ sheets.ExpenseWriter = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
	rows  [][]string
}

func New() *Store {
	return &Store{}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	s.rows = append(s.rows, sheets.Row(e))
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Expenses returns the appended expenses in order.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Rows returns the rendered rows in order.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = slices.Clone(r)
	}
	return out
}
