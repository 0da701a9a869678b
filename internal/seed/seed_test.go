package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

var now = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func TestSample(t *testing.T) {
	data, err := Sample().Build(now)
	require.NoError(t, err)

	assert.Len(t, data.Expenses, 5)
	assert.Len(t, data.Budgets, 3)
	assert.Len(t, data.Goals, 3)
	assert.Len(t, data.Recurring, 4)
	assert.Equal(t, 15, data.Count())

	bill := data.Expenses[4]
	assert.Equal(t, "Bills & Utilities", bill.Category)
	assert.True(t, bill.IsRecurring)
	assert.Equal(t, core.Monthly, bill.RecurringFrequency)
	assert.Equal(t, core.BankTransfer, bill.PaymentMethod)
	assert.Equal(t, "45.67", data.Expenses[0].Amount.StringFixed(2))

	general := data.Budgets[2]
	assert.Empty(t, general.Category)
	assert.Equal(t, 80.0, general.AlertThreshold)
	assert.Equal(t, core.PeriodMonthly, general.Period)

	fund := data.Goals[0]
	assert.Equal(t, core.GoalEmergency, fund.Category)
	assert.Equal(t, core.PriorityHigh, fund.Priority)
	assert.Equal(t, "1250.00", fund.CurrentAmount.StringFixed(2))

	salary := data.Recurring[0]
	assert.Equal(t, core.Income, salary.Type)
	assert.Equal(t, core.NewDate(2025, 4, 15).Add(10*time.Hour), salary.NextDue)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "defaults",
			doc: `
budgets:
  - name: Weekly
    amount: "50"
    period: weekly
goals:
  - name: Bike
    target: "800"
    targetInMonths: 4
`,
		},
		{name: "empty document", doc: ""},
		{name: "unknown field", doc: "expenses:\n  - amount: \"1\"\n    color: red\n", wantErr: "field color not found"},
		{name: "bad amount", doc: "expenses:\n  - amount: abc\n    category: Food\n", wantErr: "invalid amount"},
		{name: "bad frequency", doc: "recurring:\n  - name: X\n    amount: \"1\"\n    frequency: hourly\n", wantErr: "invalid frequency"},
		{name: "bad payment", doc: "expenses:\n  - amount: \"1\"\n    category: Food\n    payment: barter\n", wantErr: "invalid payment method"},
		{name: "daily budget", doc: "budgets:\n  - name: D\n    amount: \"1\"\n    period: daily\n", wantErr: "invalid budget period"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Load(strings.NewReader(tt.doc))
			if err == nil {
				_, err = ds.Build(now)
			}
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBuild_GoalTargetDate(t *testing.T) {
	ds := Dataset{Goals: []Goal{{Name: "Bike", Target: "800", TargetInMonths: 4}}}
	data, err := ds.Build(now)
	require.NoError(t, err)
	require.NotNil(t, data.Goals[0].TargetDate)
	assert.Equal(t, time.July, data.Goals[0].TargetDate.Month())
	assert.Equal(t, core.GoalGeneral, data.Goals[0].Category)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte("expenses:\n  - amount: \"12,50\"\n    category: Food\n    daysAgo: 3\n"), 0o600))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	data, err := ds.Build(now)
	require.NoError(t, err)
	require.Len(t, data.Expenses, 1)
	assert.Equal(t, "12.50", data.Expenses[0].Amount.StringFixed(2))
	assert.Equal(t, 12, data.Expenses[0].Date.Day())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
