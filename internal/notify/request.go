// Package notify turns budget and goal events into notification requests and
// delivers them asynchronously on a best-effort basis.
package notify

import (
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/engine"
)

// Kind identifies the event a notification reports.
type Kind string

const (
	KindBudgetWarning  Kind = "budgetWarning"
	KindBudgetExceeded Kind = "budgetExceeded"
	KindGoalCompleted  Kind = "goalCompleted"
)

// Request is one notification waiting for delivery. Identifier is stable per
// subject so repeated events can be collapsed.
type Request struct {
	Kind       Kind              `json:"kind"`
	Identifier string            `json:"identifier"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Payload    map[string]string `json:"payload,omitempty"`
}

// BudgetWarning reports a budget that crossed its alert threshold.
func BudgetWarning(u engine.Utilization) Request {
	b := u.Budget
	return Request{
		Kind:       KindBudgetWarning,
		Identifier: "budget_warning_" + b.ID.String(),
		Title:      "Budget Alert - " + b.Name,
		Body:       fmt.Sprintf("You've used %.1f%% of your budget. Consider tracking your spending.", u.UtilizationPercentage),
		Payload: map[string]string{
			"budgetId": b.ID.String(),
			"type":     string(KindBudgetWarning),
		},
	}
}

// BudgetExceeded reports a budget whose spend went past its limit.
func BudgetExceeded(u engine.Utilization) Request {
	b := u.Budget
	return Request{
		Kind:       KindBudgetExceeded,
		Identifier: "budget_exceeded_" + b.ID.String(),
		Title:      "Budget Exceeded - " + b.Name,
		Body:       fmt.Sprintf("You've exceeded your budget by %s. Review your spending.", core.FormatAmount(u.Overage())),
		Payload: map[string]string{
			"budgetId": b.ID.String(),
			"type":     string(KindBudgetExceeded),
		},
	}
}

// GoalCompleted congratulates on a goal reaching its target.
func GoalCompleted(g core.SavingsGoal) Request {
	return Request{
		Kind:       KindGoalCompleted,
		Identifier: "goal_completed_" + g.ID.String(),
		Title:      "Goal Achieved!",
		Body:       "Congratulations! You've reached your savings goal: " + g.Name,
		Payload: map[string]string{
			"goalId": g.ID.String(),
			"type":   string(KindGoalCompleted),
		},
	}
}

// FromDecision maps a budget alert decision to its notification.
func FromDecision(d engine.AlertDecision) Request {
	if d.Type == core.AlertExceeded {
		return BudgetExceeded(d.Utilization)
	}
	return BudgetWarning(d.Utilization)
}
