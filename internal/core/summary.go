package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      time.Month
	Total      decimal.Decimal
	Count      int
	ByCategory []CategoryAmount
}

// MonthKey truncates t to the first instant of its UTC calendar month.
func MonthKey(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// GroupByMonth buckets expenses by MonthKey of their date.
func GroupByMonth(expenses []Expense) map[time.Time][]Expense {
	out := make(map[time.Time][]Expense)
	for _, e := range expenses {
		k := MonthKey(e.Date)
		out[k] = append(out[k], e)
	}
	return out
}

// GroupByCategory buckets expenses by their category label.
func GroupByCategory(expenses []Expense) map[string][]Expense {
	out := make(map[string][]Expense)
	for _, e := range expenses {
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}

// TotalOf sums expense amounts.
func TotalOf(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Summarize returns one overview per month present in expenses, oldest first.
// Categories are ordered by amount descending, then name.
func Summarize(expenses []Expense) []MonthOverview {
	byMonth := GroupByMonth(expenses)
	keys := make([]time.Time, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]MonthOverview, 0, len(keys))
	for _, k := range keys {
		items := byMonth[k]
		ov := MonthOverview{Year: k.Year(), Month: k.Month(), Total: TotalOf(items), Count: len(items)}
		for name, group := range GroupByCategory(items) {
			ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: name, Amount: TotalOf(group)})
		}
		sort.Slice(ov.ByCategory, func(i, j int) bool {
			a, b := ov.ByCategory[i], ov.ByCategory[j]
			if !a.Amount.Equal(b.Amount) {
				return a.Amount.GreaterThan(b.Amount)
			}
			return a.Name < b.Name
		})
		out = append(out, ov)
	}
	return out
}
