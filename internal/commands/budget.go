package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/engine"
)

func newBudgetCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage spending budgets",
	}
	cmd.AddCommand(
		newBudgetAddCommand(s),
		newBudgetListCommand(s),
		newBudgetStatusCommand(s),
		newBudgetDeleteCommand(s),
	)
	return cmd
}

func newBudgetAddCommand(s *session) *cobra.Command {
	var (
		name, amount, period, category string
		start, end, color              string
		threshold                      float64
		rollover                       bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			p, err := core.ParseBudgetPeriod(period)
			if err != nil {
				return fmt.Errorf("--period %q: %w", period, err)
			}
			startDate, err := parseDate("start", start, today(s.app.Ledger().Now()))
			if err != nil {
				return err
			}
			endDate, err := parseOptionalDate("end", end)
			if err != nil {
				return err
			}

			b := core.NewBudget(strings.TrimSpace(name), limit, p, startDate)
			b.Category = strings.TrimSpace(category)
			b.AlertThreshold = threshold
			b.EndDate = endDate
			b.Rollover = rollover
			if color != "" {
				b.Color = color
			}

			saved, err := s.app.Finance.AddBudget(cmd.Context(), b)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Added budget %s: %s %s %s", saved.ID, saved.Name, core.FormatAmount(saved.Amount), saved.Period)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "budget name")
	cmd.Flags().StringVar(&amount, "amount", "", "spending limit per period")
	cmd.Flags().StringVar(&period, "period", string(core.PeriodMonthly), "weekly, biweekly, monthly, quarterly or yearly")
	cmd.Flags().StringVar(&category, "category", "", "expense category to track (default all expenses)")
	cmd.Flags().Float64Var(&threshold, "threshold", core.DefaultAlertThreshold, "alert threshold in percent")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&end, "end", "", "optional end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.Flags().BoolVar(&rollover, "rollover", false, "carry unspent amount into the next period")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newBudgetListCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			budgets := s.app.Ledger().Budgets()
			out := cmd.OutOrStdout()
			if len(budgets) == 0 {
				printEmpty(out, "No budgets found. Use 'fintrack budget add' to create one.")
				return nil
			}
			t := newTable(out, "ID", "NAME", "CATEGORY", "AMOUNT", "PERIOD", "THRESHOLD", "ACTIVE")
			for _, b := range budgets {
				t.row(b.ID.String(), b.Name, orDash(b.Category), core.FormatAmount(b.Amount),
					string(b.Period), fmt.Sprintf("%.0f%%", b.AlertThreshold), fmt.Sprint(b.IsActive))
			}
			return t.flush()
		},
	}
}

func newBudgetStatusCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status [id]",
		Short: "Show spending against each budget",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var utils []engine.Utilization
			if len(args) == 1 {
				id, err := parseID("budget", args[0])
				if err != nil {
					return err
				}
				u, err := s.app.Ledger().BudgetUtilization(id)
				if err != nil {
					return fmt.Errorf("budget %s: %w", id, err)
				}
				utils = append(utils, u)
			} else {
				utils = s.app.Ledger().Utilizations()
			}

			out := cmd.OutOrStdout()
			if len(utils) == 0 {
				printEmpty(out, "No budgets found.")
				return nil
			}
			t := newTable(out, "NAME", "SPENT", "LIMIT", "REMAINING", "USED", "STATUS")
			for _, u := range utils {
				t.row(u.Budget.Name, core.FormatAmount(u.AmountSpent), core.FormatAmount(u.Budget.Amount),
					core.FormatAmount(u.Remaining()), fmt.Sprintf("%.1f%%", u.UtilizationPercentage), budgetStatus(u))
			}
			return t.flush()
		},
	}
}

func budgetStatus(u engine.Utilization) string {
	switch {
	case u.IsOverBudget:
		return errorStyle.Render("over by " + core.FormatAmount(u.Overage()))
	case u.UtilizationPercentage >= u.Budget.AlertThreshold:
		return warningStyle.Render("warning")
	default:
		return successStyle.Render("ok")
	}
}

func newBudgetDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("budget", args[0])
			if err != nil {
				return err
			}
			if err := s.app.Finance.DeleteBudget(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted budget %s", id)
			return nil
		},
	}
}
