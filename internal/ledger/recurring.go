package ledger

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// AddRecurring stores rt. A zero NextDue is derived from the start date.
func (s *Store) AddRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.NextDue.IsZero() {
		rt.NextDue = rt.Frequency.NextDate(rt.StartDate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.clone()
	s.recurring = append(s.recurring, rt)
	if err := s.commit(ctx, before, KeyRecurring); err != nil {
		return core.RecurringTransaction{}, err
	}
	return rt, nil
}

func (s *Store) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.recurring, func(x core.RecurringTransaction) bool { return x.ID == rt.ID })
	if i < 0 {
		return core.RecurringTransaction{}, core.ErrNotFound
	}
	before := s.state.clone()
	s.recurring[i] = rt
	if err := s.commit(ctx, before, KeyRecurring); err != nil {
		return core.RecurringTransaction{}, err
	}
	return rt, nil
}

func (s *Store) DeleteRecurring(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.clone()
	var n int
	s.recurring, n = removeAll(s.recurring, func(x core.RecurringTransaction) bool { return x.ID == id })
	if n == 0 {
		return core.ErrNotFound
	}
	return s.commit(ctx, before, KeyRecurring)
}

func (s *Store) Recurring(id uuid.UUID) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.recurring, func(x core.RecurringTransaction) bool { return x.ID == id })
	if i < 0 {
		return core.RecurringTransaction{}, core.ErrNotFound
	}
	return s.recurring[i], nil
}

func (s *Store) RecurringTransactions() []core.RecurringTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.recurring)
}

// MarkProcessed records an occurrence at and moves NextDue one period past it.
func (s *Store) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.recurring, func(x core.RecurringTransaction) bool { return x.ID == id })
	if i < 0 {
		return core.RecurringTransaction{}, core.ErrNotFound
	}
	before := s.state.clone()
	rt := s.recurring[i]
	processed := at
	rt.LastProcessed = &processed
	rt.NextDue = rt.Frequency.NextDate(at)
	s.recurring[i] = rt
	if err := s.commit(ctx, before, KeyRecurring); err != nil {
		return core.RecurringTransaction{}, err
	}
	return rt, nil
}
