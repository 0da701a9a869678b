package ledger

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/engine"
	"fintrack/internal/notify"
)

// ExpenseFilter narrows Expenses. Zero fields match everything; From and To
// are inclusive.
type ExpenseFilter struct {
	Category string
	Month    time.Time
	From     time.Time
	To       time.Time
}

func (f ExpenseFilter) match(e core.Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if !f.Month.IsZero() && !core.MonthKey(e.Date).Equal(core.MonthKey(f.Month)) {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	return true
}

// AddExpense records e, evaluates every relevant budget and, for a recurring
// expense with a frequency, creates the matching recurring transaction.
func (s *Store) AddExpense(ctx context.Context, e core.Expense) (core.Expense, Result, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = core.Cash
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.clone()
	now := s.now()
	keys := []string{KeyExpenses}
	var res Result

	s.expenses = append(s.expenses, e)

	for _, d := range engine.EvaluateAlerts(s.budgets, s.expenses, e) {
		alert := d.Alert(now)
		s.alerts = append(s.alerts, alert)
		res.Alerts = append(res.Alerts, alert)
		res.Notifications = append(res.Notifications, notify.FromDecision(d))
		keys = append(keys, KeyAlerts)
	}

	if e.IsRecurring && e.RecurringFrequency != "" {
		rt := core.NewRecurringTransaction("Auto: "+e.Category, e.Amount, e.Category, e.RecurringFrequency, core.ExpenseEntry, e.Date)
		rt.Tags = slices.Clone(e.Tags)
		rt.Notes = e.Notes
		s.recurring = append(s.recurring, rt)
		res.Recurring = &rt
		keys = append(keys, KeyRecurring)
	}

	if err := s.commit(ctx, before, keys...); err != nil {
		return core.Expense{}, Result{}, err
	}
	return e, res, nil
}

// UpdateExpense replaces the stored expense with the same id.
func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.expenses, func(x core.Expense) bool { return x.ID == e.ID })
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	before := s.state.clone()
	s.expenses[i] = e
	if err := s.commit(ctx, before, KeyExpenses); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// DeleteExpense removes every expense with id.
func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.clone()
	var n int
	s.expenses, n = removeAll(s.expenses, func(x core.Expense) bool { return x.ID == id })
	if n == 0 {
		return core.ErrNotFound
	}
	return s.commit(ctx, before, KeyExpenses)
}

func (s *Store) Expense(id uuid.UUID) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.expenses, func(x core.Expense) bool { return x.ID == id })
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return s.expenses[i], nil
}

// Expenses returns matching expenses in insertion order.
func (s *Store) Expenses(f ExpenseFilter) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Expense
	for _, e := range s.expenses {
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) ExpensesByCategory() map[string][]core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.GroupByCategory(s.expenses)
}

// ExpensesByMonth buckets expenses by the first instant of their UTC month.
func (s *Store) ExpensesByMonth() map[time.Time][]core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.GroupByMonth(s.expenses)
}

// Summary returns one overview per month, oldest first.
func (s *Store) Summary() []core.MonthOverview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(s.expenses)
}
