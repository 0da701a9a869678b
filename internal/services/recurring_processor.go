package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// DefaultMaxCatchUp bounds how many missed periods one transaction may
// materialize in a single run.
const DefaultMaxCatchUp = 366

// RecurringProcessor turns due recurring transactions into ledger entries.
type RecurringProcessor struct {
	finance    *FinanceService
	maxCatchUp int
}

// NewRecurringProcessor creates a processor. maxCatchUp <= 0 uses DefaultMaxCatchUp.
func NewRecurringProcessor(finance *FinanceService, maxCatchUp int) *RecurringProcessor {
	if maxCatchUp <= 0 {
		maxCatchUp = DefaultMaxCatchUp
	}
	return &RecurringProcessor{
		finance:    finance,
		maxCatchUp: maxCatchUp,
	}
}

// ProcessDue materializes every occurrence due at or before now. Expense
// transactions create an expense dated at the due date; income transactions
// only advance. Each occurrence is marked processed before the next one is
// considered. An occurrence whose expense is already stored, left behind by a
// run that failed to mark it processed, is advanced without adding a second
// expense. Failures on one transaction do not stop the others; they are
// joined into the returned error.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.finance == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	store := p.finance.Ledger()

	transactions := store.RecurringTransactions()
	slog.InfoContext(ctx, "Processing recurring transactions",
		"total", len(transactions),
		"processing_date", now.Format(time.DateOnly))

	var (
		processed int
		errs      []error
	)
	for _, rt := range transactions {
		if !rt.IsActive {
			continue
		}

		for n := 0; n < p.maxCatchUp && isDue(rt, now); n++ {
			if err := ctx.Err(); err != nil {
				return processed, err
			}
			due := rt.NextDue

			if rt.Type == core.ExpenseEntry && occurrenceRecorded(store, rt, due) {
				slog.WarnContext(ctx, "Expense for occurrence already recorded, advancing only",
					"recurring_id", rt.ID,
					"name", rt.Name,
					"due", due.Format(time.DateOnly))
			} else if rt.Type == core.ExpenseEntry {
				e := core.NewExpense(rt.Amount, rt.Category, due)
				e.Notes = rt.Name
				e.Tags = slices.Clone(rt.Tags)
				if _, _, err := p.finance.AddExpense(ctx, e); err != nil {
					slog.ErrorContext(ctx, "Failed to create expense from recurring transaction",
						"recurring_id", rt.ID,
						"name", rt.Name,
						"error", err)
					errs = append(errs, fmt.Errorf("%s: %w", rt.Name, err))
					break
				}
			}

			updated, err := store.MarkProcessed(ctx, rt.ID, due)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to mark recurring transaction processed",
					"recurring_id", rt.ID,
					"error", err)
				errs = append(errs, fmt.Errorf("%s: %w", rt.Name, err))
				break
			}
			rt = updated
			processed++

			slog.InfoContext(ctx, "Processed recurring transaction",
				"recurring_id", rt.ID,
				"name", rt.Name,
				"type", rt.Type,
				"due", due.Format(time.DateOnly),
				"amount", rt.Amount.StringFixed(2))
		}
	}

	if processed > 0 {
		p.finance.tracker.Track(ctx, "recurring_processed", "recurring", map[string]string{
			"count": strconv.Itoa(processed),
		})
	}
	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(transactions))

	return processed, errors.Join(errs...)
}

// occurrenceRecorded reports whether the expense for the occurrence of rt due
// on due already exists.
func occurrenceRecorded(store *ledger.Store, rt core.RecurringTransaction, due time.Time) bool {
	for _, e := range store.Expenses(ledger.ExpenseFilter{Category: rt.Category, From: due, To: due}) {
		if e.Notes == rt.Name && e.Amount.Equal(rt.Amount) {
			return true
		}
	}
	return false
}

func isDue(rt core.RecurringTransaction, now time.Time) bool {
	return !rt.NextDue.IsZero() && !rt.NextDue.After(now) && !rt.Ended(rt.NextDue)
}
