package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// ContributionResult is the goal after a contribution plus what it caused.
type ContributionResult struct {
	Goal  core.SavingsGoal
	Entry core.SavingsEntry
	// Completed is true only when this contribution moved the goal from
	// not completed to completed.
	Completed  bool
	Milestones []core.Milestone
}

// WithdrawResult carries a rejected withdrawal as OK=false rather than an error.
type WithdrawResult struct {
	OK    bool
	Goal  core.SavingsGoal
	Entry core.SavingsEntry
}

// Contribute adds amount to the goal and records an addition entry.
func Contribute(goal core.SavingsGoal, amount decimal.Decimal, notes string, now time.Time) (ContributionResult, error) {
	if !amount.IsPositive() {
		return ContributionResult{}, core.ErrInvalidAmount
	}

	wasCompleted := goal.IsCompleted()
	goal.CurrentAmount = goal.CurrentAmount.Add(amount)
	reached := markMilestones(&goal, now)

	completed := !wasCompleted && goal.IsCompleted()
	if completed {
		at := now
		goal.CompletedAt = &at
	}

	return ContributionResult{
		Goal:       goal,
		Entry:      newEntry(goal.ID, amount, core.Addition, notes, now),
		Completed:  completed,
		Milestones: reached,
	}, nil
}

// Withdraw removes amount from the goal. Asking for more than the current
// amount is rejected with OK=false and no entry.
func Withdraw(goal core.SavingsGoal, amount decimal.Decimal, notes string, now time.Time) (WithdrawResult, error) {
	if !amount.IsPositive() {
		return WithdrawResult{}, core.ErrInvalidAmount
	}
	if amount.GreaterThan(goal.CurrentAmount) {
		return WithdrawResult{OK: false, Goal: goal}, nil
	}

	goal.CurrentAmount = floorZero(goal.CurrentAmount.Sub(amount))
	if !goal.IsCompleted() {
		goal.CompletedAt = nil
	}

	return WithdrawResult{
		OK:    true,
		Goal:  goal,
		Entry: newEntry(goal.ID, amount, core.Removal, notes, now),
	}, nil
}

// ReverseEntry undoes the effect of entry on goal: an addition is subtracted
// (floored at zero) and a removal is added back.
func ReverseEntry(goal core.SavingsGoal, entry core.SavingsEntry) core.SavingsGoal {
	switch entry.Type {
	case core.Addition:
		goal.CurrentAmount = floorZero(goal.CurrentAmount.Sub(entry.Amount))
	case core.Removal:
		goal.CurrentAmount = goal.CurrentAmount.Add(entry.Amount)
	}
	if !goal.IsCompleted() {
		goal.CompletedAt = nil
	}
	return goal
}

// SumEntries is additions minus removals for goalID, floored at zero.
func SumEntries(entries []core.SavingsEntry, goalID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.GoalID == goalID {
			total = total.Add(e.Signed())
		}
	}
	return floorZero(total)
}

// RequiredMonthlyContribution spreads the remaining amount evenly over the
// months left until the goal's target date.
func RequiredMonthlyContribution(goal core.SavingsGoal, now time.Time) (decimal.Decimal, error) {
	if goal.TargetDate == nil {
		return decimal.Zero, core.ErrNoTargetDate
	}
	remaining := goal.Remaining()
	if remaining.IsZero() {
		return decimal.Zero, nil
	}
	months := MonthsRemaining(now, *goal.TargetDate)
	return remaining.Div(decimal.NewFromInt(int64(months))).Round(2), nil
}

// MonthsRemaining counts calendar months from now to target. A partial month
// counts as a whole one and the result is never below 1.
func MonthsRemaining(now, target time.Time) int {
	ny, nm, nd := now.Date()
	ty, tm, td := target.In(now.Location()).Date()
	months := (ty-ny)*12 + int(tm-nm)
	if td > nd {
		months++
	}
	if months < 1 {
		return 1
	}
	return months
}

func markMilestones(goal *core.SavingsGoal, now time.Time) []core.Milestone {
	if len(goal.Milestones) == 0 {
		return nil
	}
	milestones := make([]core.Milestone, len(goal.Milestones))
	copy(milestones, goal.Milestones)

	var reached []core.Milestone
	for i, m := range milestones {
		if m.IsCompleted || m.Amount.GreaterThan(goal.CurrentAmount) {
			continue
		}
		at := now
		milestones[i].IsCompleted = true
		milestones[i].CompletedAt = &at
		reached = append(reached, milestones[i])
	}
	goal.Milestones = milestones
	return reached
}

func newEntry(goalID uuid.UUID, amount decimal.Decimal, typ core.EntryType, notes string, now time.Time) core.SavingsEntry {
	return core.SavingsEntry{
		ID:     uuid.New(),
		GoalID: goalID,
		Amount: amount,
		Type:   typ,
		Date:   now,
		Notes:  notes,
	}
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
