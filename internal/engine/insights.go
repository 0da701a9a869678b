package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Insight tuning constants.
const (
	TrendHighPriorityPercent = 20.0
	TrendActionablePercent   = 15.0
	GoalNearlyDoneProgress   = 0.8
)

// insightNamespace seeds deterministic insight ids so an unchanged snapshot
// regenerates identical insights.
var insightNamespace = uuid.MustParse("7d1c0f5e-2b4a-4f7e-9a51-0c6a1f2e9b3d")

// Snapshot is the ledger state insights are generated from.
type Snapshot struct {
	Expenses []core.Expense
	Budgets  []core.Budget
	Goals    []core.SavingsGoal
	Now      time.Time
}

// GenerateInsights rebuilds the full insight list: spending trend first,
// then exceeded budgets, then goals close to completion.
func GenerateInsights(s Snapshot) []core.FinancialInsight {
	var out []core.FinancialInsight
	out = append(out, SpendingInsights(s.Expenses, s.Now)...)
	out = append(out, BudgetInsights(s.Budgets, s.Expenses, s.Now)...)
	out = append(out, SavingsInsights(s.Goals, s.Now)...)
	return out
}

// SpendingInsights compares the two most recent calendar months that have
// expenses. Fewer than two months yields nothing.
func SpendingInsights(expenses []core.Expense, now time.Time) []core.FinancialInsight {
	byMonth := core.GroupByMonth(expenses)
	if len(byMonth) < 2 {
		return nil
	}
	months := make([]time.Time, 0, len(byMonth))
	for k := range byMonth {
		months = append(months, k)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	current := core.TotalOf(byMonth[months[len(months)-1]])
	previous := core.TotalOf(byMonth[months[len(months)-2]])
	change, changePercent := MonthlyChange(previous, current)

	trend := core.TrendStable
	switch change.Sign() {
	case 1:
		trend = core.TrendUp
	case -1:
		trend = core.TrendDown
	}

	priority := core.InsightMedium
	if math.Abs(changePercent) > TrendHighPriorityPercent {
		priority = core.InsightHigh
	}

	return []core.FinancialInsight{{
		ID:          insightID("spending", months[len(months)-1].Format("2006-01")),
		Type:        core.InsightTrend,
		Title:       "Monthly Spending Trend",
		Description: fmt.Sprintf("Your spending is %s by %.1f%% compared to last month", trend, math.Abs(changePercent)),
		Value:       core.FormatAmount(current),
		Trend:       trend,
		Priority:    priority,
		Actionable:  math.Abs(changePercent) > TrendActionablePercent,
		Category:    "Spending",
		CreatedAt:   now,
	}}
}

// BudgetInsights emits one urgent insight per budget currently over its limit.
func BudgetInsights(budgets []core.Budget, expenses []core.Expense, now time.Time) []core.FinancialInsight {
	var out []core.FinancialInsight
	for _, b := range budgets {
		u := Utilize(b, expenses)
		if !u.IsOverBudget {
			continue
		}
		category := b.Category
		if category == "" {
			category = "General"
		}
		out = append(out, core.FinancialInsight{
			ID:          insightID("budget", b.ID.String()),
			Type:        core.InsightAlert,
			Title:       "Budget Exceeded",
			Description: fmt.Sprintf("%s is over budget by %s", b.Name, core.FormatAmount(u.Overage())),
			Value:       fmt.Sprintf("%.1f%%", u.UtilizationPercentage),
			Trend:       core.TrendUp,
			Priority:    core.InsightUrgent,
			Actionable:  true,
			Category:    category,
			CreatedAt:   now,
		})
	}
	return out
}

// SavingsInsights flags active goals that are at least 80% funded but not
// yet complete.
func SavingsInsights(goals []core.SavingsGoal, now time.Time) []core.FinancialInsight {
	var out []core.FinancialInsight
	for _, g := range goals {
		if !g.IsActive || g.IsCompleted() || g.Progress() < GoalNearlyDoneProgress {
			continue
		}
		out = append(out, core.FinancialInsight{
			ID:          insightID("savings", g.ID.String()),
			Type:        core.InsightOpportunity,
			Title:       "Goal Almost Complete",
			Description: fmt.Sprintf("%s is %.0f%% complete!", g.Name, g.Progress()*100),
			Value:       core.FormatAmount(g.Remaining()) + " remaining",
			Trend:       core.TrendUp,
			Priority:    core.InsightMedium,
			Actionable:  true,
			Category:    string(g.Category),
			CreatedAt:   now,
		})
	}
	return out
}

func insightID(kind, subject string) uuid.UUID {
	return uuid.NewSHA1(insightNamespace, []byte(kind+":"+subject))
}

// MonthlyChange returns current minus previous and the change as a
// percentage of previous. The percentage is 0 when previous is not positive.
func MonthlyChange(previous, current decimal.Decimal) (decimal.Decimal, float64) {
	change := current.Sub(previous)
	if !previous.IsPositive() {
		return change, 0
	}
	return change, change.Div(previous).Mul(hundred).InexactFloat64()
}
