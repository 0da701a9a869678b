package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKey(t *testing.T) {
	got := MonthKey(time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, NewDate(2025, 3, 1), got)

	// non-UTC instants bucket by their UTC month
	est := time.FixedZone("EST", -5*3600)
	got = MonthKey(time.Date(2025, 3, 31, 22, 0, 0, 0, est))
	assert.Equal(t, NewDate(2025, 4, 1), got)
}

func TestSummarize(t *testing.T) {
	expenses := []Expense{
		NewExpense(dec("10"), "Food", NewDate(2025, 2, 3)),
		NewExpense(dec("30"), "Rent", NewDate(2025, 1, 1)),
		NewExpense(dec("5"), "Food", NewDate(2025, 1, 20)),
		NewExpense(dec("30"), "Fun", NewDate(2025, 1, 22)),
	}

	got := Summarize(expenses)
	require.Len(t, got, 2)

	jan := got[0]
	assert.Equal(t, 2025, jan.Year)
	assert.Equal(t, time.January, jan.Month)
	assert.Equal(t, 3, jan.Count)
	assert.True(t, dec("65").Equal(jan.Total))
	require.Len(t, jan.ByCategory, 3)
	assert.Equal(t, "Fun", jan.ByCategory[0].Name)
	assert.Equal(t, "Rent", jan.ByCategory[1].Name)
	assert.Equal(t, "Food", jan.ByCategory[2].Name)

	feb := got[1]
	assert.Equal(t, time.February, feb.Month)
	assert.True(t, dec("10").Equal(feb.Total))
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
	assert.True(t, TotalOf(nil).IsZero())
}
