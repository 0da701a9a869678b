// Package engine holds the pure finance calculations: budget utilization,
// savings goal arithmetic and insight generation. Nothing here performs I/O;
// callers pass in the ledger snapshot they want evaluated.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Utilization is spend against limit for one budget.
type Utilization struct {
	Budget                core.Budget
	AmountSpent           decimal.Decimal
	UtilizationPercentage float64
	IsOverBudget          bool
}

// Matches reports whether an expense category counts against the budget.
// A budget without a category captures every expense.
func Matches(b core.Budget, category string) bool {
	return b.Category == "" || b.Category == category
}

// Utilize computes spend for b over expenses. The percentage and the
// over-budget flag are derived independently: a zero limit reports 0% while
// still being over budget as soon as anything is spent.
func Utilize(b core.Budget, expenses []core.Expense) Utilization {
	spent := decimal.Zero
	for _, e := range expenses {
		if Matches(b, e.Category) {
			spent = spent.Add(e.Amount)
		}
	}

	pct := 0.0
	if b.Amount.IsPositive() {
		pct = spent.Div(b.Amount).Mul(hundred).InexactFloat64()
	}

	return Utilization{
		Budget:                b,
		AmountSpent:           spent,
		UtilizationPercentage: pct,
		IsOverBudget:          spent.GreaterThan(b.Amount),
	}
}

// Remaining is limit minus spend; negative once over budget.
func (u Utilization) Remaining() decimal.Decimal {
	return u.Budget.Amount.Sub(u.AmountSpent)
}

// Overage is how far spend exceeds the limit, zero when within it.
func (u Utilization) Overage() decimal.Decimal {
	if !u.IsOverBudget {
		return decimal.Zero
	}
	return u.AmountSpent.Sub(u.Budget.Amount)
}

// AlertDecision is the outcome of evaluating one budget after an expense.
type AlertDecision struct {
	Type        core.AlertType
	Utilization Utilization
}

// EvaluateAlerts checks every budget relevant to the added expense. A budget
// at or above its threshold yields an exceeded decision when over its limit
// and a warning otherwise. expenses must already include added.
func EvaluateAlerts(budgets []core.Budget, expenses []core.Expense, added core.Expense) []AlertDecision {
	var out []AlertDecision
	for _, b := range budgets {
		if !Matches(b, added.Category) {
			continue
		}
		u := Utilize(b, expenses)
		if u.UtilizationPercentage < b.AlertThreshold {
			continue
		}
		typ := core.AlertWarning
		if u.IsOverBudget {
			typ = core.AlertExceeded
		}
		out = append(out, AlertDecision{Type: typ, Utilization: u})
	}
	return out
}

// Alert builds the persisted alert record for the decision.
func (d AlertDecision) Alert(now time.Time) core.BudgetAlert {
	b := d.Utilization.Budget
	budgetID := b.ID
	alert := core.BudgetAlert{
		ID:        uuid.New(),
		Type:      d.Type,
		BudgetID:  &budgetID,
		CreatedAt: now,
	}
	if d.Type == core.AlertExceeded {
		alert.Severity = core.SeverityCritical
		alert.Message = fmt.Sprintf("%s exceeded by %s", b.Name, core.FormatAmount(d.Utilization.Overage()))
	} else {
		alert.Severity = core.SeverityWarning
		alert.Message = fmt.Sprintf("%s at %.1f%% of its limit", b.Name, d.Utilization.UtilizationPercentage)
	}
	return alert
}
