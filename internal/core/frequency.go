// Package core holds the finance domain types and the pure calendar and
// money helpers shared by every other package.
//
// This file implements recurrence arithmetic. Each frequency has a stepper
// that advances a date by exactly one period; steppers live in a registry so
// new frequencies can be added without touching callers.
package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

const (
	PeriodWeekly    BudgetPeriod = "weekly"
	PeriodBiweekly  BudgetPeriod = "biweekly"
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
)

type (
	Frequency    string
	BudgetPeriod string
)

// Stepper advances a date by one recurrence period.
type Stepper interface {
	Next(from time.Time) time.Time
}

// DayStepper adds a fixed number of calendar days.
type DayStepper struct {
	Days int
}

func (s DayStepper) Next(from time.Time) time.Time {
	return from.AddDate(0, 0, s.Days)
}

// MonthStepper adds calendar months, clamping to the last day of the target
// month when the source day does not exist there.
type MonthStepper struct {
	Months int
}

func (s MonthStepper) Next(from time.Time) time.Time {
	return AddMonthsClamped(from, s.Months)
}

type frequencyRule struct {
	stepper Stepper
	perYear int
}

var frequencyRules = map[Frequency]frequencyRule{
	Daily:     {stepper: DayStepper{Days: 1}, perYear: 365},
	Weekly:    {stepper: DayStepper{Days: 7}, perYear: 52},
	Biweekly:  {stepper: DayStepper{Days: 14}, perYear: 26},
	Monthly:   {stepper: MonthStepper{Months: 1}, perYear: 12},
	Quarterly: {stepper: MonthStepper{Months: 3}, perYear: 4},
	Yearly:    {stepper: MonthStepper{Months: 12}, perYear: 1},
}

// RegisterStepper adds or replaces the rule for a frequency.
// Not safe for use concurrently with date calculations.
func RegisterStepper(f Frequency, s Stepper, perYear int) {
	frequencyRules[f] = frequencyRule{stepper: s, perYear: perYear}
}

// ParseFrequency accepts the canonical names plus "bi-weekly" style spellings.
func ParseFrequency(s string) (Frequency, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)
	f := Frequency(norm)
	if !f.IsValid() {
		return "", ErrInvalidFrequency
	}
	return f, nil
}

func (f Frequency) IsValid() bool {
	_, ok := frequencyRules[f]
	return ok
}

// NextDate returns the next occurrence after from. An unknown frequency
// returns from unchanged.
func (f Frequency) NextDate(from time.Time) time.Time {
	rule, ok := frequencyRules[f]
	if !ok || rule.stepper == nil {
		return from
	}
	return rule.stepper.Next(from)
}

// OccurrencesPerYear is 0 for an unknown frequency.
func (f Frequency) OccurrencesPerYear() int {
	return frequencyRules[f].perYear
}

// AnnualizedAmount is amount times the yearly occurrence count of f.
func AnnualizedAmount(amount decimal.Decimal, f Frequency) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(f.OccurrencesPerYear())))
}

// AddMonthsClamped adds months to t keeping the time of day. When the day of
// month overflows the target month it is clamped to that month's last day,
// so Jan 31 + 1 month is Feb 28 (or 29).
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// ParseBudgetPeriod accepts the same spellings as ParseFrequency.
func ParseBudgetPeriod(s string) (BudgetPeriod, error) {
	f, err := ParseFrequency(s)
	if err != nil || f == Daily {
		return "", ErrInvalidPeriod
	}
	return BudgetPeriod(f), nil
}

func (p BudgetPeriod) IsValid() bool {
	switch p {
	case PeriodWeekly, PeriodBiweekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	default:
		return false
	}
}

// Frequency returns the recurrence matching the period length.
func (p BudgetPeriod) Frequency() Frequency {
	return Frequency(p)
}
