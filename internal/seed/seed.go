// Package seed reads demo and fixture data from YAML and turns it into ledger
// entities. The built-in sample set is embedded in the binary.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
)

//go:embed sample.yaml
var sampleYAML []byte

// Dataset is the YAML document shape. Amounts are strings so fixtures keep
// exact cents.
type Dataset struct {
	Expenses  []Expense   `yaml:"expenses"`
	Budgets   []Budget    `yaml:"budgets"`
	Goals     []Goal      `yaml:"goals"`
	Recurring []Recurring `yaml:"recurring"`
}

type Expense struct {
	Amount    string   `yaml:"amount"`
	Category  string   `yaml:"category"`
	Notes     string   `yaml:"notes"`
	Payment   string   `yaml:"payment"`
	Merchant  string   `yaml:"merchant"`
	Tags      []string `yaml:"tags"`
	DaysAgo   int      `yaml:"daysAgo"`
	Recurring string   `yaml:"recurring"` // frequency; empty for one-off expenses
}

type Budget struct {
	Name      string   `yaml:"name"`
	Amount    string   `yaml:"amount"`
	Category  string   `yaml:"category"`
	Period    string   `yaml:"period"`
	Threshold *float64 `yaml:"threshold"`
}

type Goal struct {
	Name           string `yaml:"name"`
	Target         string `yaml:"target"`
	Current        string `yaml:"current"`
	Category       string `yaml:"category"`
	Priority       string `yaml:"priority"`
	TargetInMonths int    `yaml:"targetInMonths"`
}

type Recurring struct {
	Name      string   `yaml:"name"`
	Amount    string   `yaml:"amount"`
	Category  string   `yaml:"category"`
	Frequency string   `yaml:"frequency"`
	Type      string   `yaml:"type"`
	Tags      []string `yaml:"tags"`
}

// Data is a dataset resolved against a reference time.
type Data struct {
	Expenses  []core.Expense
	Budgets   []core.Budget
	Goals     []core.SavingsGoal
	Recurring []core.RecurringTransaction
}

// Count is the total number of entities.
func (d Data) Count() int {
	return len(d.Expenses) + len(d.Budgets) + len(d.Goals) + len(d.Recurring)
}

// Sample returns the built-in demo dataset.
func Sample() Dataset {
	ds, err := Load(bytes.NewReader(sampleYAML))
	if err != nil {
		panic(fmt.Sprintf("seed: embedded sample is invalid: %v", err))
	}
	return ds
}

// Load decodes a dataset. Unknown fields are rejected.
func Load(r io.Reader) (Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, nil
		}
		return Dataset{}, fmt.Errorf("decode seed data: %w", err)
	}
	return ds, nil
}

// LoadFile reads a dataset from path.
func LoadFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Build converts the dataset into validated entities dated relative to now.
func (ds Dataset) Build(now time.Time) (Data, error) {
	var out Data
	for i, x := range ds.Expenses {
		e, err := x.build(now)
		if err != nil {
			return Data{}, fmt.Errorf("expense %d: %w", i+1, err)
		}
		out.Expenses = append(out.Expenses, e)
	}
	for i, x := range ds.Budgets {
		b, err := x.build(now)
		if err != nil {
			return Data{}, fmt.Errorf("budget %d (%s): %w", i+1, x.Name, err)
		}
		out.Budgets = append(out.Budgets, b)
	}
	for i, x := range ds.Goals {
		g, err := x.build(now)
		if err != nil {
			return Data{}, fmt.Errorf("goal %d (%s): %w", i+1, x.Name, err)
		}
		out.Goals = append(out.Goals, g)
	}
	for i, x := range ds.Recurring {
		rt, err := x.build(now)
		if err != nil {
			return Data{}, fmt.Errorf("recurring %d (%s): %w", i+1, x.Name, err)
		}
		out.Recurring = append(out.Recurring, rt)
	}
	return out, nil
}

func (x Expense) build(now time.Time) (core.Expense, error) {
	amount, err := core.ParseAmount(x.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.NewExpense(amount, x.Category, now.AddDate(0, 0, -x.DaysAgo))
	e.Notes = x.Notes
	e.Merchant = x.Merchant
	e.Tags = slices.Clone(x.Tags)
	if x.Payment != "" {
		e.PaymentMethod = core.PaymentMethod(x.Payment)
	}
	if x.Recurring != "" {
		f, err := core.ParseFrequency(x.Recurring)
		if err != nil {
			return core.Expense{}, err
		}
		e.IsRecurring = true
		e.RecurringFrequency = f
	}
	return e, e.Validate()
}

func (x Budget) build(now time.Time) (core.Budget, error) {
	amount, err := core.ParseAmount(x.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	period := core.PeriodMonthly
	if x.Period != "" {
		if period, err = core.ParseBudgetPeriod(x.Period); err != nil {
			return core.Budget{}, err
		}
	}
	b := core.NewBudget(x.Name, amount, period, now)
	b.Category = x.Category
	if x.Threshold != nil {
		b.AlertThreshold = *x.Threshold
	}
	return b, b.Validate()
}

func (x Goal) build(now time.Time) (core.SavingsGoal, error) {
	target, err := core.ParseAmount(x.Target)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g := core.NewSavingsGoal(x.Name, target, now)
	if x.Current != "" {
		if g.CurrentAmount, err = core.ParseAmount(x.Current); err != nil {
			return core.SavingsGoal{}, err
		}
	}
	if x.Category != "" {
		g.Category = core.GoalCategory(x.Category)
	}
	if x.Priority != "" {
		g.Priority = core.GoalPriority(x.Priority)
	}
	if x.TargetInMonths > 0 {
		td := core.AddMonthsClamped(now, x.TargetInMonths)
		g.TargetDate = &td
	}
	return g, g.Validate()
}

func (x Recurring) build(now time.Time) (core.RecurringTransaction, error) {
	amount, err := core.ParseAmount(x.Amount)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	f, err := core.ParseFrequency(x.Frequency)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	typ := core.ExpenseEntry
	if x.Type != "" {
		typ = core.TransactionType(x.Type)
	}
	rt := core.NewRecurringTransaction(x.Name, amount, x.Category, f, typ, now)
	rt.Tags = slices.Clone(x.Tags)
	return rt, rt.Validate()
}
