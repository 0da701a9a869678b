// Package services orchestrates ledger operations with their side effects:
// notification dispatch, analytics tracking and export sync messages.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/engine"
	"fintrack/internal/ledger"
	"fintrack/internal/notify"
	"fintrack/internal/seed"
)

// Notifier accepts notification requests without blocking.
type Notifier interface {
	Dispatch(ctx context.Context, reqs ...notify.Request)
}

// ExpenseExporter queues an expense for the export worker.
type ExpenseExporter interface {
	PublishExpenseSync(ctx context.Context, id uuid.UUID, version int64) error
}

// FinanceService wraps the ledger for callers. Side effect failures are
// logged and never fail the operation.
type FinanceService struct {
	ledger   *ledger.Store
	notifier Notifier
	tracker  analytics.Tracker
	exporter ExpenseExporter
}

type Option func(*FinanceService)

func WithNotifier(n Notifier) Option {
	return func(s *FinanceService) { s.notifier = n }
}

func WithTracker(t analytics.Tracker) Option {
	return func(s *FinanceService) { s.tracker = t }
}

func WithExporter(e ExpenseExporter) Option {
	return func(s *FinanceService) { s.exporter = e }
}

func NewFinanceService(l *ledger.Store, opts ...Option) *FinanceService {
	s := &FinanceService{ledger: l, tracker: analytics.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger exposes the underlying store for read-only queries.
func (s *FinanceService) Ledger() *ledger.Store {
	return s.ledger
}

// AddExpense records an expense, dispatches any budget notifications and
// queues the export sync.
func (s *FinanceService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, ledger.Result, error) {
	saved, res, err := s.ledger.AddExpense(ctx, e)
	if err != nil {
		return core.Expense{}, ledger.Result{}, fmt.Errorf("add expense: %w", err)
	}

	s.dispatch(ctx, res.Notifications)
	s.tracker.Track(ctx, "expense_added", "expense", map[string]string{
		"amount":    saved.Amount.StringFixed(2),
		"category":  saved.Category,
		"has_notes": strconv.FormatBool(saved.Notes != ""),
	})
	if res.Recurring != nil {
		s.tracker.Track(ctx, "recurring_created", "recurring", map[string]string{
			"frequency": string(res.Recurring.Frequency),
			"source":    "expense",
		})
	}
	s.publishSync(ctx, saved.ID, amqp.SyncVersionCreated)
	return saved, res, nil
}

func (s *FinanceService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	saved, err := s.ledger.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.tracker.Track(ctx, "expense_updated", "expense", map[string]string{"category": saved.Category})
	s.publishSync(ctx, saved.ID, amqp.SyncVersionUpdated)
	return saved, nil
}

func (s *FinanceService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	if err := s.ledger.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	s.tracker.Track(ctx, "expense_deleted", "expense", nil)
	return nil
}

func (s *FinanceService) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	saved, err := s.ledger.AddBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("add budget: %w", err)
	}
	s.tracker.Track(ctx, "budget_created", "budget", map[string]string{
		"amount":   saved.Amount.StringFixed(2),
		"category": saved.Category,
		"period":   string(saved.Period),
	})
	return saved, nil
}

func (s *FinanceService) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	saved, err := s.ledger.UpdateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	s.tracker.Track(ctx, "budget_updated", "budget", nil)
	return saved, nil
}

func (s *FinanceService) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	if err := s.ledger.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	s.tracker.Track(ctx, "budget_deleted", "budget", nil)
	return nil
}

func (s *FinanceService) AddGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	saved, err := s.ledger.AddGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("add goal: %w", err)
	}
	s.tracker.Track(ctx, "goal_created", "goal", map[string]string{
		"target_amount": saved.TargetAmount.StringFixed(2),
		"category":      string(saved.Category),
		"priority":      string(saved.Priority),
	})
	return saved, nil
}

func (s *FinanceService) UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	saved, res, err := s.ledger.UpdateGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal: %w", err)
	}
	s.dispatch(ctx, res.Notifications)
	s.tracker.Track(ctx, "goal_updated", "goal", nil)
	return saved, nil
}

func (s *FinanceService) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	if err := s.ledger.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	s.tracker.Track(ctx, "goal_deleted", "goal", nil)
	return nil
}

// Contribute adds money to a goal. Reaching the target dispatches the
// completion notification.
func (s *FinanceService) Contribute(ctx context.Context, goalID uuid.UUID, amount decimal.Decimal, notes string) (engine.ContributionResult, error) {
	out, res, err := s.ledger.Contribute(ctx, goalID, amount, notes)
	if err != nil {
		return engine.ContributionResult{}, fmt.Errorf("contribute to goal %s: %w", goalID, err)
	}
	s.dispatch(ctx, res.Notifications)
	s.tracker.Track(ctx, "savings_added", "savings", map[string]string{
		"amount":  amount.StringFixed(2),
		"goal_id": goalID.String(),
	})
	if out.Completed {
		s.tracker.Track(ctx, "goal_completed", "goal", map[string]string{"goal_id": goalID.String()})
	}
	return out, nil
}

// Withdraw removes money from a goal. A rejected withdrawal is reported in
// the result, not as an error.
func (s *FinanceService) Withdraw(ctx context.Context, goalID uuid.UUID, amount decimal.Decimal, notes string) (engine.WithdrawResult, error) {
	out, err := s.ledger.Withdraw(ctx, goalID, amount, notes)
	if err != nil {
		return engine.WithdrawResult{}, fmt.Errorf("withdraw from goal %s: %w", goalID, err)
	}
	if out.OK {
		s.tracker.Track(ctx, "savings_removed", "savings", map[string]string{
			"amount":  amount.StringFixed(2),
			"goal_id": goalID.String(),
		})
	}
	return out, nil
}

func (s *FinanceService) DeleteEntry(ctx context.Context, entryID uuid.UUID) (core.SavingsGoal, error) {
	g, err := s.ledger.DeleteEntry(ctx, entryID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("delete savings entry %s: %w", entryID, err)
	}
	s.tracker.Track(ctx, "savings_entry_deleted", "savings", map[string]string{"goal_id": g.ID.String()})
	return g, nil
}

func (s *FinanceService) AddRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	saved, err := s.ledger.AddRecurring(ctx, rt)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("add recurring transaction: %w", err)
	}
	s.tracker.Track(ctx, "recurring_created", "recurring", map[string]string{
		"frequency": string(saved.Frequency),
		"type":      string(saved.Type),
	})
	return saved, nil
}

func (s *FinanceService) DeleteRecurring(ctx context.Context, id uuid.UUID) error {
	if err := s.ledger.DeleteRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete recurring transaction %s: %w", id, err)
	}
	s.tracker.Track(ctx, "recurring_deleted", "recurring", nil)
	return nil
}

func (s *FinanceService) MarkAlertRead(ctx context.Context, id uuid.UUID) error {
	if err := s.ledger.MarkAlertRead(ctx, id); err != nil {
		return fmt.Errorf("mark alert %s read: %w", id, err)
	}
	return nil
}

// PopulateSampleData adds every entity of ds through the regular operations,
// so budget alerts and auto-created recurring transactions behave as if a
// user had entered them. It stops at the first failure.
func (s *FinanceService) PopulateSampleData(ctx context.Context, ds seed.Dataset) (seed.Data, error) {
	data, err := ds.Build(s.ledger.Now())
	if err != nil {
		return seed.Data{}, fmt.Errorf("build sample data: %w", err)
	}

	for _, e := range data.Expenses {
		if _, _, err := s.AddExpense(ctx, e); err != nil {
			return seed.Data{}, err
		}
	}
	for _, b := range data.Budgets {
		if _, err := s.AddBudget(ctx, b); err != nil {
			return seed.Data{}, err
		}
	}
	for _, g := range data.Goals {
		if _, err := s.AddGoal(ctx, g); err != nil {
			return seed.Data{}, err
		}
	}
	for _, rt := range data.Recurring {
		if _, err := s.AddRecurring(ctx, rt); err != nil {
			return seed.Data{}, err
		}
	}

	s.tracker.Track(ctx, "sample_data_populated", "demo", map[string]string{"count": strconv.Itoa(data.Count())})
	slog.InfoContext(ctx, "Sample data populated", "count", data.Count())
	return data, nil
}

// Reset wipes the ledger and, when the tracker supports it, the analytics
// history. The reset itself is then tracked.
func (s *FinanceService) Reset(ctx context.Context) error {
	if err := s.ledger.Reset(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	if c, ok := s.tracker.(interface{ Clear(context.Context) error }); ok {
		if err := c.Clear(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to clear analytics history", "error", err)
		}
	}
	s.tracker.Track(ctx, "data_reset", "settings", nil)
	return nil
}

func (s *FinanceService) dispatch(ctx context.Context, reqs []notify.Request) {
	if s.notifier == nil || len(reqs) == 0 {
		return
	}
	s.notifier.Dispatch(ctx, reqs...)
}

func (s *FinanceService) publishSync(ctx context.Context, id uuid.UUID, version int64) {
	if s.exporter == nil {
		return
	}
	if err := s.exporter.PublishExpenseSync(ctx, id, version); err != nil {
		level := slog.LevelError
		if errors.Is(err, context.Canceled) {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Failed to publish sync message",
			"expense_id", id,
			"version", version,
			"error", err)
	}
}
