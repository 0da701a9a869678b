package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const dateLayout = time.DateOnly

func parseAmount(flag, s string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s %q: %w", flag, s, err)
	}
	return d, nil
}

// parseDate reads YYYY-MM-DD as UTC midnight. An empty value yields def.
func parseDate(flag, s string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s %q: %w", flag, s, core.ErrInvalidDate)
	}
	return t, nil
}

func parseOptionalDate(flag, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(flag, s, time.Time{})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseID(kind, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}

func parsePayment(s string) (core.PaymentMethod, error) {
	p := core.PaymentMethod(strings.TrimSpace(s))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidPaymentMethod, s)
	}
	return p, nil
}

func parseGoalCategory(s string) (core.GoalCategory, error) {
	c := core.GoalCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidGoalCategory, s)
	}
	return c, nil
}

func parsePriority(s string) (core.GoalPriority, error) {
	p := core.GoalPriority(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidPriority, s)
	}
	return p, nil
}

func parseTransactionType(s string) (core.TransactionType, error) {
	t := core.TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidTransactionType, s)
	}
	return t, nil
}

// today is the UTC calendar date of now.
func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return core.NewDate(y, int(m), d)
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
