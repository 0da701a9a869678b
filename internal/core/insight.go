package core

import (
	"time"

	"github.com/google/uuid"
)

const (
	InsightSpending    InsightType = "spending"
	InsightBudget      InsightType = "budget"
	InsightSavings     InsightType = "savings"
	InsightTrend       InsightType = "trend"
	InsightAlert       InsightType = "alert"
	InsightOpportunity InsightType = "opportunity"
	InsightAchievement InsightType = "achievement"
	InsightWarning     InsightType = "warning"
)

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

const (
	InsightLow    InsightPriority = "low"
	InsightMedium InsightPriority = "medium"
	InsightHigh   InsightPriority = "high"
	InsightUrgent InsightPriority = "urgent"
)

const (
	AlertExceeded        AlertType = "exceeded"
	AlertWarning         AlertType = "warning"
	AlertGoalAchieved    AlertType = "goalAchieved"
	AlertRecurringDue    AlertType = "recurringDue"
	AlertUnusualSpending AlertType = "unusualSpending"
)

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

type (
	InsightType     string
	TrendDirection  string
	InsightPriority string
	AlertType       string
	AlertSeverity   string

	// FinancialInsight is generated from ledger state, never entered by users.
	FinancialInsight struct {
		ID          uuid.UUID       `json:"id"`
		Type        InsightType     `json:"type"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Value       string          `json:"value"`
		Trend       TrendDirection  `json:"trend"`
		Priority    InsightPriority `json:"priority"`
		Actionable  bool            `json:"actionable"`
		Category    string          `json:"category"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	BudgetAlert struct {
		ID          uuid.UUID     `json:"id"`
		Type        AlertType     `json:"type"`
		Severity    AlertSeverity `json:"severity"`
		Message     string        `json:"message"`
		BudgetID    *uuid.UUID    `json:"budgetId,omitempty"`
		CreatedAt   time.Time     `json:"createdAt"`
		IsRead      bool          `json:"isRead"`
		ActionTaken bool          `json:"actionTaken"`
	}
)
