// Package sheets defines the spreadsheet export port and the row layout
// shared by its adapters.
package sheets

import (
	"context"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}
)

// Header names the exported columns in order.
var Header = []string{"Date", "Category", "Notes", "Amount", "Payment", "Tags"}

// Row renders e in Header order. Amounts use a dot and two decimals so the
// sheet parses them as numbers.
func Row(e core.Expense) []string {
	notes := e.Notes
	if e.Merchant != "" {
		if notes == "" {
			notes = e.Merchant
		} else {
			notes = e.Merchant + ": " + notes
		}
	}
	return []string{
		e.Date.UTC().Format(time.DateOnly),
		e.Category,
		notes,
		e.Amount.StringFixed(2),
		string(e.PaymentMethod),
		strings.Join(e.Tags, ", "),
	}
}
