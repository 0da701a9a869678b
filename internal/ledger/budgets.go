package ledger

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/engine"
)

func (s *Store) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Color == "" {
		b.Color = core.DefaultBudgetColor
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.clone()
	s.budgets = append(s.budgets, b)
	if err := s.commit(ctx, before, KeyBudgets); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.budgets, func(x core.Budget) bool { return x.ID == b.ID })
	if i < 0 {
		return core.Budget{}, core.ErrNotFound
	}
	before := s.state.clone()
	s.budgets[i] = b
	if err := s.commit(ctx, before, KeyBudgets); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.clone()
	var n int
	s.budgets, n = removeAll(s.budgets, func(x core.Budget) bool { return x.ID == id })
	if n == 0 {
		return core.ErrNotFound
	}
	return s.commit(ctx, before, KeyBudgets)
}

func (s *Store) Budget(id uuid.UUID) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.budgets, func(x core.Budget) bool { return x.ID == id })
	if i < 0 {
		return core.Budget{}, core.ErrNotFound
	}
	return s.budgets[i], nil
}

func (s *Store) Budgets() []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.budgets)
}

// BudgetUtilization computes spend for one budget over every stored expense.
func (s *Store) BudgetUtilization(id uuid.UUID) (engine.Utilization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.budgets, func(x core.Budget) bool { return x.ID == id })
	if i < 0 {
		return engine.Utilization{}, core.ErrNotFound
	}
	return engine.Utilize(s.budgets[i], s.expenses), nil
}

// Utilizations returns the utilization of every budget in insertion order.
func (s *Store) Utilizations() []engine.Utilization {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]engine.Utilization, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, engine.Utilize(b, s.expenses))
	}
	return out
}
