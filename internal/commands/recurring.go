package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func newRecurringCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring income and expenses",
	}
	cmd.AddCommand(
		newRecurringAddCommand(s),
		newRecurringListCommand(s),
		newRecurringProcessCommand(s),
		newRecurringDeleteCommand(s),
	)
	return cmd
}

func newRecurringAddCommand(s *session) *cobra.Command {
	var (
		name, amount, category, frequency string
		typ, start, end, notes            string
		tags                              []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			freq, err := core.ParseFrequency(frequency)
			if err != nil {
				return fmt.Errorf("--frequency %q: %w", frequency, err)
			}
			tt, err := parseTransactionType(typ)
			if err != nil {
				return err
			}
			startDate, err := parseDate("start", start, today(s.app.Ledger().Now()))
			if err != nil {
				return err
			}
			endDate, err := parseOptionalDate("end", end)
			if err != nil {
				return err
			}

			rt := core.NewRecurringTransaction(strings.TrimSpace(name), value, strings.TrimSpace(category), freq, tt, startDate)
			rt.EndDate = endDate
			rt.Tags = tags
			rt.Notes = notes

			saved, err := s.app.Finance.AddRecurring(cmd.Context(), rt)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Added recurring %s %s: %s %s %s, next due %s", saved.Type, saved.ID,
				saved.Name, core.FormatAmount(saved.Amount), saved.Frequency, formatDate(saved.NextDue))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "transaction name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount per occurrence")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&frequency, "frequency", string(core.Monthly), "daily, weekly, biweekly, monthly, quarterly or yearly")
	cmd.Flags().StringVar(&typ, "type", string(core.ExpenseEntry), "expense or income")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&end, "end", "", "optional end date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag, repeatable")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newRecurringListCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := s.app.Ledger().RecurringTransactions()
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				printEmpty(out, "No recurring transactions found. Use 'fintrack recurring add' to create one.")
				return nil
			}
			t := newTable(out, "ID", "NAME", "TYPE", "CATEGORY", "AMOUNT", "FREQUENCY", "PER YEAR", "NEXT DUE", "ACTIVE")
			for _, rt := range items {
				t.row(rt.ID.String(), rt.Name, string(rt.Type), rt.Category, core.FormatAmount(rt.Amount),
					string(rt.Frequency), core.FormatAmount(rt.AnnualizedAmount()), formatDate(rt.NextDue), fmt.Sprint(rt.IsActive))
			}
			return t.flush()
		},
	}
}

func newRecurringProcessCommand(s *session) *cobra.Command {
	var maxCatchUp int
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Create the expenses of every due recurring transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			processor := services.NewRecurringProcessor(s.app.Finance, maxCatchUp)
			n, err := processor.ProcessDue(cmd.Context(), s.app.Ledger().Now())
			out := cmd.OutOrStdout()
			if n > 0 {
				printSuccess(out, "Processed %d due occurrences", n)
			} else if err == nil {
				printEmpty(out, "Nothing due.")
			}
			return err
		},
	}
	cmd.Flags().IntVar(&maxCatchUp, "max-catch-up", services.DefaultMaxCatchUp, "most missed periods to process per transaction")
	return cmd
}

func newRecurringDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recurring transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("recurring transaction", args[0])
			if err != nil {
				return err
			}
			if err := s.app.Finance.DeleteRecurring(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted recurring transaction %s", id)
			return nil
		},
	}
}
