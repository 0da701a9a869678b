package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestExpenseValidate(t *testing.T) {
	good := NewExpense(dec("12.50"), "Food", NewDate(2025, 1, 1))
	require.NoError(t, good.Validate())

	zeroAmount := good
	zeroAmount.Amount = decimal.Zero
	require.NoError(t, zeroAmount.Validate(), "zero amounts are allowed for expenses")

	tests := []struct {
		name   string
		mutate func(e *Expense)
		want   error
	}{
		{"missing id", func(e *Expense) { e.ID = uuid.Nil }, ErrMissingID},
		{"negative amount", func(e *Expense) { e.Amount = dec("-1") }, ErrNegativeAmount},
		{"blank category", func(e *Expense) { e.Category = "  " }, ErrEmptyCategory},
		{"zero date", func(e *Expense) { e.Date = time.Time{} }, ErrInvalidDate},
		{"recurring without frequency", func(e *Expense) { e.IsRecurring = true }, ErrInvalidFrequency},
		{"unknown frequency", func(e *Expense) { e.RecurringFrequency = "hourly" }, ErrInvalidFrequency},
		{"unknown payment method", func(e *Expense) { e.PaymentMethod = "barter" }, ErrInvalidPaymentMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := good
			tt.mutate(&e)
			assert.ErrorIs(t, e.Validate(), tt.want)
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	good := NewBudget("Food", dec("500"), PeriodMonthly, NewDate(2025, 1, 1))
	require.NoError(t, good.Validate())
	assert.Equal(t, DefaultAlertThreshold, good.AlertThreshold)
	assert.Equal(t, DefaultBudgetColor, good.Color)
	assert.True(t, good.IsActive)

	before := NewDate(2024, 12, 1)
	tests := []struct {
		name   string
		mutate func(b *Budget)
		want   error
	}{
		{"blank name", func(b *Budget) { b.Name = "" }, ErrEmptyName},
		{"negative amount", func(b *Budget) { b.Amount = dec("-5") }, ErrNegativeAmount},
		{"bad period", func(b *Budget) { b.Period = "daily" }, ErrInvalidPeriod},
		{"threshold above 100", func(b *Budget) { b.AlertThreshold = 101 }, ErrInvalidThreshold},
		{"threshold below 0", func(b *Budget) { b.AlertThreshold = -1 }, ErrInvalidThreshold},
		{"end before start", func(b *Budget) { b.EndDate = &before }, ErrInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := good
			tt.mutate(&b)
			assert.ErrorIs(t, b.Validate(), tt.want)
		})
	}
}

func TestSavingsGoalValidate(t *testing.T) {
	good := NewSavingsGoal("Emergency", dec("5000"), NewDate(2025, 1, 1))
	require.NoError(t, good.Validate())
	assert.Equal(t, GoalGeneral, good.Category)
	assert.Equal(t, PriorityMedium, good.Priority)
	assert.Equal(t, DefaultGoalColor, good.Color)

	tests := []struct {
		name   string
		mutate func(g *SavingsGoal)
		want   error
	}{
		{"zero target", func(g *SavingsGoal) { g.TargetAmount = decimal.Zero }, ErrInvalidAmount},
		{"negative current", func(g *SavingsGoal) { g.CurrentAmount = dec("-1") }, ErrNegativeAmount},
		{"bad category", func(g *SavingsGoal) { g.Category = "yacht" }, ErrInvalidGoalCategory},
		{"bad priority", func(g *SavingsGoal) { g.Priority = "someday" }, ErrInvalidPriority},
		{"bad milestone", func(g *SavingsGoal) {
			g.Milestones = []Milestone{{Amount: decimal.Zero, Description: "nothing"}}
		}, ErrInvalidAmount},
		{"bad automatic contribution", func(g *SavingsGoal) {
			g.AutomaticContribution = &AutomaticContribution{Amount: dec("10"), Frequency: "hourly"}
		}, ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := good
			tt.mutate(&g)
			assert.ErrorIs(t, g.Validate(), tt.want)
		})
	}
}

func TestSavingsGoal_Derived(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		current   string
		progress  float64
		remaining string
		completed bool
	}{
		{"quarter way", "10000", "2500", 0.25, "7500", false},
		{"empty", "1000", "0", 0, "1000", false},
		{"exactly done", "1000", "1000", 1, "0", true},
		{"overshoot clamps", "1000", "1500", 1, "0", true},
		{"zero target", "0", "50", 0, "0", true},
		{"negative target", "-10", "0", 0, "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := SavingsGoal{TargetAmount: dec(tt.target), CurrentAmount: dec(tt.current)}
			assert.InDelta(t, tt.progress, g.Progress(), 1e-9)
			assert.GreaterOrEqual(t, g.Progress(), 0.0)
			assert.LessOrEqual(t, g.Progress(), 1.0)
			assert.True(t, dec(tt.remaining).Equal(g.Remaining()), "remaining %s", g.Remaining())
			assert.Equal(t, tt.completed, g.IsCompleted())
		})
	}
}

func TestSavingsEntryValidate(t *testing.T) {
	e := SavingsEntry{ID: uuid.New(), GoalID: uuid.New(), Amount: dec("10"), Type: Addition}
	require.NoError(t, e.Validate())
	assert.True(t, dec("10").Equal(e.Signed()))

	e.Type = Removal
	assert.True(t, dec("-10").Equal(e.Signed()))

	e.Amount = decimal.Zero
	assert.ErrorIs(t, e.Validate(), ErrInvalidAmount)

	e.Amount = dec("1")
	e.Type = "refund"
	assert.ErrorIs(t, e.Validate(), ErrInvalidEntryType)

	e.Type = Addition
	e.GoalID = uuid.Nil
	assert.ErrorIs(t, e.Validate(), ErrMissingID)
}

func TestRecurringTransaction(t *testing.T) {
	start := NewDate(2025, 1, 31)
	rt := NewRecurringTransaction("Rent", dec("1200"), "Housing", Monthly, ExpenseEntry, start)
	require.NoError(t, rt.Validate())
	assert.Equal(t, NewDate(2025, 2, 28), rt.NextDue)
	assert.True(t, dec("14400").Equal(rt.AnnualizedAmount()))

	weekly := NewRecurringTransaction("Lunch", dec("50"), "Food", Weekly, ExpenseEntry, start)
	assert.True(t, dec("2600").Equal(weekly.AnnualizedAmount()))

	end := NewDate(2025, 6, 30)
	rt.EndDate = &end
	assert.False(t, rt.Ended(NewDate(2025, 6, 30)))
	assert.True(t, rt.Ended(NewDate(2025, 7, 1)))

	bad := rt
	bad.Type = "transfer"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidTransactionType)

	bad = rt
	bad.Frequency = "hourly"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidFrequency)

	early := NewDate(2024, 1, 1)
	bad = rt
	bad.EndDate = &early
	assert.ErrorIs(t, bad.Validate(), ErrInvalidDateRange)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, ApplePay.IsValid())
	assert.False(t, PaymentMethod("cheque").IsValid())
	assert.True(t, GoalWedding.IsValid())
	assert.True(t, PriorityCritical.IsValid())
	assert.True(t, Income.IsValid())
	assert.False(t, TransactionType("").IsValid())
}
