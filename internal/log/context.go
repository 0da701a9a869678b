package log

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext extracts the logger stored by WithContext, falling back to the
// slog default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger emits the recurring domain log lines with consistent fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogExpenseCreated logs a stored expense and where it was exported, if anywhere.
func (sl *StructuredLogger) LogExpenseCreated(ctx context.Context, id, category string, amount decimal.Decimal, ref string) {
	fields := NewFields().
		WithExpense(id, category, amount).
		WithOperation(OpCreate).
		ToSlice()
	if ref != "" {
		fields = append(fields, FieldSheetsRef, ref)
	}
	sl.logger.WithComponent(ComponentLedger).InfoContext(ctx, "Expense recorded", fields...)
}

// LogExpenseExported logs an expense written to an external sheet.
func (sl *StructuredLogger) LogExpenseExported(ctx context.Context, id, category string, amount decimal.Decimal, ref string) {
	fields := NewFields().
		WithExpense(id, category, amount).
		WithOperation(OpSync).
		ToSlice()
	fields = append(fields, FieldSheetsRef, ref)
	sl.logger.WithComponent(ComponentSheets).InfoContext(ctx, "Expense exported", fields...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.WithError(err).WithOperation(operation)
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, all.ToSlice()...)
}
