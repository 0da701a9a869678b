package ledger

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Alerts returns every stored alert, oldest first.
func (s *Store) Alerts() []core.BudgetAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.alerts)
}

// UnreadAlerts counts alerts not yet marked read.
func (s *Store) UnreadAlerts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.alerts {
		if !a.IsRead {
			n++
		}
	}
	return n
}

func (s *Store) MarkAlertRead(ctx context.Context, id uuid.UUID) error {
	return s.updateAlert(ctx, id, func(a *core.BudgetAlert) { a.IsRead = true })
}

// MarkAlertActioned flags the alert as handled, which also marks it read.
func (s *Store) MarkAlertActioned(ctx context.Context, id uuid.UUID) error {
	return s.updateAlert(ctx, id, func(a *core.BudgetAlert) {
		a.IsRead = true
		a.ActionTaken = true
	})
}

func (s *Store) DeleteAlert(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.clone()
	var n int
	s.alerts, n = removeAll(s.alerts, func(x core.BudgetAlert) bool { return x.ID == id })
	if n == 0 {
		return core.ErrNotFound
	}
	return s.commit(ctx, before, KeyAlerts)
}

func (s *Store) updateAlert(ctx context.Context, id uuid.UUID, apply func(*core.BudgetAlert)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.alerts, func(x core.BudgetAlert) bool { return x.ID == id })
	if i < 0 {
		return core.ErrNotFound
	}
	before := s.state.clone()
	apply(&s.alerts[i])
	return s.commit(ctx, before, KeyAlerts)
}
