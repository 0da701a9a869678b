// Package worker holds the message handlers run by the background worker:
// expense export, notification delivery and analytics collection.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// ExpenseSource is the read side of the ledger the export worker needs.
type ExpenseSource interface {
	Reload(ctx context.Context) error
	Expense(id uuid.UUID) (core.Expense, error)
}

// ExportWorker appends synced expenses to a spreadsheet.
type ExportWorker struct {
	source ExpenseSource
	sheets sheets.ExpenseWriter
	logs   *log.StructuredLogger
}

func NewExportWorker(source ExpenseSource, writer sheets.ExpenseWriter, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		source: source,
		sheets: writer,
		logs:   log.NewStructuredLogger(logger),
	}
}

// HandleExpenseSync exports one expense. The ledger is reloaded first so
// writes made by other processes are visible. An expense that no longer
// exists is acknowledged and skipped. The sheet is append-only: update
// messages are acknowledged without adding a second row.
func (w *ExportWorker) HandleExpenseSync(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	if msg.Version > amqp.SyncVersionCreated {
		slog.InfoContext(ctx, "Expense already exported, skipping update", "id", msg.ID, "version", msg.Version)
		return nil
	}

	if err := w.source.Reload(ctx); err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}

	expense, err := w.source.Expense(msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Expense no longer exists, skipping export", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from ledger: %w", err)
	}

	ref, err := w.sheets.Append(ctx, expense)
	if err != nil {
		w.logs.LogError(ctx, "Failed to export expense", err, log.ComponentSheets, log.OpAppend,
			log.NewFields().WithExpense(expense.ID.String(), expense.Category, expense.Amount))
		return fmt.Errorf("append to sheets: %w", err)
	}

	w.logs.LogExpenseExported(ctx, expense.ID.String(), expense.Category, expense.Amount, ref)
	return nil
}
