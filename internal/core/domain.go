package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Cash         PaymentMethod = "cash"
	Credit       PaymentMethod = "credit"
	Debit        PaymentMethod = "debit"
	BankTransfer PaymentMethod = "bankTransfer"
	PayPal       PaymentMethod = "paypal"
	Venmo        PaymentMethod = "venmo"
	ApplePay     PaymentMethod = "applePay"
	OtherPayment PaymentMethod = "other"
)

const (
	Addition EntryType = "addition"
	Removal  EntryType = "removal"
)

const (
	Income       TransactionType = "income"
	ExpenseEntry TransactionType = "expense"
)

const (
	GoalEmergency  GoalCategory = "emergency"
	GoalVacation   GoalCategory = "vacation"
	GoalHouse      GoalCategory = "house"
	GoalCar        GoalCategory = "car"
	GoalEducation  GoalCategory = "education"
	GoalRetirement GoalCategory = "retirement"
	GoalWedding    GoalCategory = "wedding"
	GoalGeneral    GoalCategory = "general"
)

const (
	PriorityLow      GoalPriority = "low"
	PriorityMedium   GoalPriority = "medium"
	PriorityHigh     GoalPriority = "high"
	PriorityCritical GoalPriority = "critical"
)

const (
	DefaultAlertThreshold = 90.0
	DefaultBudgetColor    = "#4CAF50"
	DefaultGoalColor      = "#2196F3"
)

type (
	PaymentMethod   string
	EntryType       string
	TransactionType string
	GoalCategory    string
	GoalPriority    string

	Expense struct {
		ID                 uuid.UUID       `json:"id"`
		Amount             decimal.Decimal `json:"amount"`
		Category           string          `json:"category"`
		Notes              string          `json:"notes,omitempty"`
		Date               time.Time       `json:"date"`
		IsRecurring        bool            `json:"isRecurring"`
		RecurringFrequency Frequency       `json:"recurringFrequency,omitempty"`
		Tags               []string        `json:"tags,omitempty"`
		Merchant           string          `json:"merchant,omitempty"`
		PaymentMethod      PaymentMethod   `json:"paymentMethod"`
	}

	Budget struct {
		ID             uuid.UUID       `json:"id"`
		Name           string          `json:"name"`
		Amount         decimal.Decimal `json:"amount"`
		Period         BudgetPeriod    `json:"period"`
		Category       string          `json:"category,omitempty"` // empty applies to every expense
		AlertThreshold float64         `json:"alertThreshold"`     // percentage, 0-100
		IsActive       bool            `json:"isActive"`
		Color          string          `json:"color"`
		StartDate      time.Time       `json:"startDate"`
		EndDate        *time.Time      `json:"endDate,omitempty"`
		Rollover       bool            `json:"rollover"`
	}

	Milestone struct {
		ID          uuid.UUID       `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		IsCompleted bool            `json:"isCompleted"`
		CompletedAt *time.Time      `json:"completedAt,omitempty"`
	}

	AutomaticContribution struct {
		Amount           decimal.Decimal `json:"amount"`
		Frequency        Frequency       `json:"frequency"`
		NextContribution time.Time       `json:"nextContribution"`
		IsActive         bool            `json:"isActive"`
	}

	SavingsGoal struct {
		ID                    uuid.UUID              `json:"id"`
		Name                  string                 `json:"name"`
		TargetAmount          decimal.Decimal        `json:"targetAmount"`
		CurrentAmount         decimal.Decimal        `json:"currentAmount"`
		TargetDate            *time.Time             `json:"targetDate,omitempty"`
		Category              GoalCategory           `json:"category"`
		Priority              GoalPriority           `json:"priority"`
		CreatedAt             time.Time              `json:"createdAt"`
		CompletedAt           *time.Time             `json:"completedAt,omitempty"`
		IsActive              bool                   `json:"isActive"`
		Milestones            []Milestone            `json:"milestones,omitempty"`
		Color                 string                 `json:"color"`
		AutomaticContribution *AutomaticContribution `json:"automaticContribution,omitempty"`
	}

	SavingsEntry struct {
		ID     uuid.UUID       `json:"id"`
		GoalID uuid.UUID       `json:"goalId"`
		Amount decimal.Decimal `json:"amount"`
		Type   EntryType       `json:"type"`
		Date   time.Time       `json:"date"`
		Notes  string          `json:"notes,omitempty"`
	}

	RecurringTransaction struct {
		ID            uuid.UUID       `json:"id"`
		Name          string          `json:"name"`
		Amount        decimal.Decimal `json:"amount"`
		Category      string          `json:"category"`
		Frequency     Frequency       `json:"frequency"`
		Type          TransactionType `json:"type"`
		StartDate     time.Time       `json:"startDate"`
		EndDate       *time.Time      `json:"endDate,omitempty"`
		IsActive      bool            `json:"isActive"`
		LastProcessed *time.Time      `json:"lastProcessed,omitempty"`
		NextDue       time.Time       `json:"nextDue"`
		Tags          []string        `json:"tags,omitempty"`
		Notes         string          `json:"notes,omitempty"`
	}
)

var (
	ErrNotFound               = errors.New("not found")
	ErrMissingID              = errors.New("missing id")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNegativeAmount         = errors.New("amount cannot be negative")
	ErrEmptyName              = errors.New("empty name")
	ErrEmptyCategory          = errors.New("empty category")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidDateRange       = errors.New("end date must not be before start date")
	ErrInvalidThreshold       = errors.New("alert threshold must be between 0 and 100")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidPeriod          = errors.New("invalid budget period")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidEntryType       = errors.New("invalid savings entry type")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidGoalCategory    = errors.New("invalid goal category")
	ErrInvalidPriority        = errors.New("invalid goal priority")
	ErrNoTargetDate           = errors.New("goal has no target date")
)

// NewDate creates a UTC midnight time from year, month, day
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// NewExpense returns an expense with a fresh id and the default payment method.
func NewExpense(amount decimal.Decimal, category string, date time.Time) Expense {
	return Expense{
		ID:            uuid.New(),
		Amount:        amount,
		Category:      category,
		Date:          date,
		PaymentMethod: Cash,
	}
}

// NewBudget returns an active budget with default threshold and color.
func NewBudget(name string, amount decimal.Decimal, period BudgetPeriod, start time.Time) Budget {
	return Budget{
		ID:             uuid.New(),
		Name:           name,
		Amount:         amount,
		Period:         period,
		AlertThreshold: DefaultAlertThreshold,
		IsActive:       true,
		Color:          DefaultBudgetColor,
		StartDate:      start,
	}
}

// NewSavingsGoal returns an active goal in the general category with medium priority.
func NewSavingsGoal(name string, target decimal.Decimal, createdAt time.Time) SavingsGoal {
	return SavingsGoal{
		ID:            uuid.New(),
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		Category:      GoalGeneral,
		Priority:      PriorityMedium,
		CreatedAt:     createdAt,
		IsActive:      true,
		Color:         DefaultGoalColor,
	}
}

// NewRecurringTransaction returns an active transaction whose first due date
// is one period after start.
func NewRecurringTransaction(name string, amount decimal.Decimal, category string, freq Frequency, typ TransactionType, start time.Time) RecurringTransaction {
	return RecurringTransaction{
		ID:        uuid.New(),
		Name:      name,
		Amount:    amount,
		Category:  category,
		Frequency: freq,
		Type:      typ,
		StartDate: start,
		IsActive:  true,
		NextDue:   freq.NextDate(start),
	}
}

func (p PaymentMethod) IsValid() bool {
	switch p {
	case Cash, Credit, Debit, BankTransfer, PayPal, Venmo, ApplePay, OtherPayment:
		return true
	default:
		return false
	}
}

func (t EntryType) IsValid() bool {
	return t == Addition || t == Removal
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == ExpenseEntry
}

func (c GoalCategory) IsValid() bool {
	switch c {
	case GoalEmergency, GoalVacation, GoalHouse, GoalCar, GoalEducation, GoalRetirement, GoalWedding, GoalGeneral:
		return true
	default:
		return false
	}
}

func (p GoalPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

func (e Expense) Validate() error {
	if e.ID == uuid.Nil {
		return ErrMissingID
	}
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.IsRecurring && !e.RecurringFrequency.IsValid() {
		return fmt.Errorf("recurring expense: %w", ErrInvalidFrequency)
	}
	if e.RecurringFrequency != "" && !e.RecurringFrequency.IsValid() {
		return ErrInvalidFrequency
	}
	if !e.PaymentMethod.IsValid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

func (b Budget) Validate() error {
	if b.ID == uuid.Nil {
		return ErrMissingID
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !b.Period.IsValid() {
		return ErrInvalidPeriod
	}
	if b.AlertThreshold < 0 || b.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if g.ID == uuid.Nil {
		return ErrMissingID
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.TargetAmount.IsPositive() {
		return fmt.Errorf("target amount: %w", ErrInvalidAmount)
	}
	if g.CurrentAmount.IsNegative() {
		return ErrNegativeAmount
	}
	if !g.Category.IsValid() {
		return ErrInvalidGoalCategory
	}
	if !g.Priority.IsValid() {
		return ErrInvalidPriority
	}
	for _, m := range g.Milestones {
		if !m.Amount.IsPositive() {
			return fmt.Errorf("milestone %q: %w", m.Description, ErrInvalidAmount)
		}
	}
	if ac := g.AutomaticContribution; ac != nil {
		if !ac.Amount.IsPositive() {
			return fmt.Errorf("automatic contribution: %w", ErrInvalidAmount)
		}
		if !ac.Frequency.IsValid() {
			return fmt.Errorf("automatic contribution: %w", ErrInvalidFrequency)
		}
	}
	return nil
}

// Progress is currentAmount/targetAmount clamped to [0, 1]; 0 when the
// target is not positive.
func (g SavingsGoal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	p := g.CurrentAmount.Div(g.TargetAmount).InexactFloat64()
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

func (g SavingsGoal) IsCompleted() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Remaining is the amount still missing to reach the target, never negative.
func (g SavingsGoal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

func (e SavingsEntry) Validate() error {
	if e.GoalID == uuid.Nil {
		return ErrMissingID
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !e.Type.IsValid() {
		return ErrInvalidEntryType
	}
	return nil
}

// Signed returns the entry amount with removals negated.
func (e SavingsEntry) Signed() decimal.Decimal {
	if e.Type == Removal {
		return e.Amount.Neg()
	}
	return e.Amount
}

func (rt RecurringTransaction) Validate() error {
	if rt.ID == uuid.Nil {
		return ErrMissingID
	}
	if strings.TrimSpace(rt.Name) == "" {
		return ErrEmptyName
	}
	if rt.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !rt.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if !rt.Type.IsValid() {
		return ErrInvalidTransactionType
	}
	if rt.StartDate.IsZero() {
		return fmt.Errorf("start date: %w", ErrInvalidDate)
	}
	if rt.EndDate != nil && rt.EndDate.Before(rt.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// AnnualizedAmount projects the transaction amount over one year.
func (rt RecurringTransaction) AnnualizedAmount() decimal.Decimal {
	return AnnualizedAmount(rt.Amount, rt.Frequency)
}

// Ended reports whether at is past the transaction end date.
func (rt RecurringTransaction) Ended(at time.Time) bool {
	return rt.EndDate != nil && at.After(*rt.EndDate)
}
