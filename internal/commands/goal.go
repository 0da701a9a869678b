package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/engine"
)

func newGoalCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage savings goals",
	}
	cmd.AddCommand(
		newGoalAddCommand(s),
		newGoalListCommand(s),
		newGoalContributeCommand(s),
		newGoalWithdrawCommand(s),
		newGoalEntriesCommand(s),
		newGoalDeleteEntryCommand(s),
		newGoalForecastCommand(s),
		newGoalDeleteCommand(s),
	)
	return cmd
}

func newGoalAddCommand(s *session) *cobra.Command {
	var name, target, current, category, priority, targetDate, color string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a savings goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targetAmount, err := parseAmount("target", target)
			if err != nil {
				return err
			}
			cat, err := parseGoalCategory(category)
			if err != nil {
				return err
			}
			prio, err := parsePriority(priority)
			if err != nil {
				return err
			}
			due, err := parseOptionalDate("target-date", targetDate)
			if err != nil {
				return err
			}

			g := core.NewSavingsGoal(strings.TrimSpace(name), targetAmount, s.app.Ledger().Now())
			g.Category = cat
			g.Priority = prio
			g.TargetDate = due
			if cmd.Flags().Changed("current") {
				if g.CurrentAmount, err = parseAmount("current", current); err != nil {
					return err
				}
			}
			if color != "" {
				g.Color = color
			}

			saved, err := s.app.Finance.AddGoal(cmd.Context(), g)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Added goal %s: %s, target %s", saved.ID, saved.Name, core.FormatAmount(saved.TargetAmount))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "goal name")
	cmd.Flags().StringVar(&target, "target", "", "amount to save")
	cmd.Flags().StringVar(&current, "current", "", "amount already saved")
	cmd.Flags().StringVar(&category, "category", string(core.GoalGeneral), "emergency, vacation, house, car, education, retirement, wedding or general")
	cmd.Flags().StringVar(&priority, "priority", string(core.PriorityMedium), "low, medium, high or critical")
	cmd.Flags().StringVar(&targetDate, "target-date", "", "date to reach the target (YYYY-MM-DD)")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newGoalListCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List savings goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			goals := s.app.Ledger().Goals()
			out := cmd.OutOrStdout()
			if len(goals) == 0 {
				printEmpty(out, "No savings goals found. Use 'fintrack goal add' to create one.")
				return nil
			}
			t := newTable(out, "ID", "NAME", "CATEGORY", "PRIORITY", "SAVED", "TARGET", "PROGRESS", "TARGET DATE")
			for _, g := range goals {
				t.row(g.ID.String(), g.Name, string(g.Category), string(g.Priority),
					core.FormatAmount(g.CurrentAmount), core.FormatAmount(g.TargetAmount),
					progress(g), formatOptionalDate(g.TargetDate))
			}
			return t.flush()
		},
	}
}

func progress(g core.SavingsGoal) string {
	p := fmt.Sprintf("%.0f%%", g.Progress()*100)
	if g.IsCompleted() {
		return successStyle.Render(p)
	}
	return p
}

func newGoalContributeCommand(s *session) *cobra.Command {
	var amount, notes string
	cmd := &cobra.Command{
		Use:   "contribute <goal-id>",
		Short: "Add money to a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, value, err := goalAmountArgs(args[0], amount)
			if err != nil {
				return err
			}
			res, err := s.app.Finance.Contribute(cmd.Context(), id, value, notes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Saved %s towards %s (%s of %s)", core.FormatAmount(value), res.Goal.Name,
				core.FormatAmount(res.Goal.CurrentAmount), core.FormatAmount(res.Goal.TargetAmount))
			for _, m := range res.Milestones {
				printSuccess(out, "Milestone reached: %s (%s)", m.Description, core.FormatAmount(m.Amount))
			}
			if res.Completed {
				printSuccess(out, "Goal achieved! Congratulations on reaching %s", res.Goal.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount to add")
	cmd.Flags().StringVar(&notes, "notes", "", "optional note")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newGoalWithdrawCommand(s *session) *cobra.Command {
	var amount, notes string
	cmd := &cobra.Command{
		Use:   "withdraw <goal-id>",
		Short: "Take money out of a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, value, err := goalAmountArgs(args[0], amount)
			if err != nil {
				return err
			}
			res, err := s.app.Finance.Withdraw(cmd.Context(), id, value, notes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.OK {
				printWarning(out, "Cannot withdraw %s from %s: only %s saved", core.FormatAmount(value), res.Goal.Name, core.FormatAmount(res.Goal.CurrentAmount))
				return nil
			}
			printSuccess(out, "Withdrew %s from %s (%s left)", core.FormatAmount(value), res.Goal.Name, core.FormatAmount(res.Goal.CurrentAmount))
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount to withdraw")
	cmd.Flags().StringVar(&notes, "notes", "", "optional note")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func goalAmountArgs(idArg, amount string) (id uuid.UUID, value decimal.Decimal, err error) {
	if id, err = parseID("goal", idArg); err != nil {
		return id, value, err
	}
	value, err = parseAmount("amount", amount)
	return id, value, err
}

func newGoalEntriesCommand(s *session) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "entries <goal-id>",
		Short: "List contributions and withdrawals of a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("goal", args[0])
			if err != nil {
				return err
			}
			if _, err := s.app.Ledger().Goal(id); err != nil {
				return fmt.Errorf("goal %s: %w", id, err)
			}

			entries := s.app.Ledger().Entries(id)
			if typ != "" {
				et := core.EntryType(typ)
				if !et.IsValid() {
					return fmt.Errorf("%w: %q", core.ErrInvalidEntryType, typ)
				}
				entries = s.app.Ledger().EntriesByType(id, et)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				printEmpty(out, "No entries for this goal.")
				return nil
			}
			t := newTable(out, "ID", "DATE", "TYPE", "AMOUNT", "NOTES")
			for _, e := range entries {
				t.row(e.ID.String(), formatDate(e.Date), string(e.Type), core.FormatAmount(e.Signed()), orDash(e.Notes))
			}
			if err := t.flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTotal saved: %s\n", core.FormatAmount(s.app.Ledger().TotalSaved(id)))
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "only addition or removal entries")
	return cmd
}

func newGoalDeleteEntryCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-entry <entry-id>",
		Short: "Delete a savings entry and reverse its effect on the goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("entry", args[0])
			if err != nil {
				return err
			}
			g, err := s.app.Finance.DeleteEntry(cmd.Context(), id)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted entry %s, %s now at %s", id, g.Name, core.FormatAmount(g.CurrentAmount))
			return nil
		},
	}
}

func newGoalForecastCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast <goal-id>",
		Short: "Show progress and the monthly saving needed to hit the target date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("goal", args[0])
			if err != nil {
				return err
			}
			g, err := s.app.Ledger().Goal(id)
			if err != nil {
				return fmt.Errorf("goal %s: %w", id, err)
			}
			rec, err := s.app.Ledger().Reconcile(id)
			if err != nil {
				return err
			}
			printForecast(cmd.OutOrStdout(), g, s.app.Ledger().Now(), rec.Balanced(), rec.Drift())
			return nil
		},
	}
}

func printForecast(out io.Writer, g core.SavingsGoal, now time.Time, balanced bool, drift decimal.Decimal) {
	printTitle(out, g.Name)
	fmt.Fprintf(out, "Saved:     %s of %s (%s)\n", core.FormatAmount(g.CurrentAmount), core.FormatAmount(g.TargetAmount), progress(g))
	fmt.Fprintf(out, "Remaining: %s\n", core.FormatAmount(g.Remaining()))

	monthly, err := engine.RequiredMonthlyContribution(g, now)
	switch {
	case errors.Is(err, core.ErrNoTargetDate):
		printEmpty(out, "No target date set.")
	case err != nil:
		printWarning(out, "Cannot forecast: %v", err)
	default:
		fmt.Fprintf(out, "Target:    %s (%d months)\n", formatDate(*g.TargetDate), engine.MonthsRemaining(now, *g.TargetDate))
		fmt.Fprintf(out, "Monthly:   %s\n", core.FormatAmount(monthly))
	}

	if !balanced {
		printWarning(out, "Balance differs from entry history by %s", core.FormatAmount(drift))
	}
}

func newGoalDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete a goal and its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("goal", args[0])
			if err != nil {
				return err
			}
			if err := s.app.Finance.DeleteGoal(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted goal %s", id)
			return nil
		},
	}
}
