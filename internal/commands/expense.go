package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

func newExpenseCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record and review expenses",
	}
	cmd.AddCommand(
		newExpenseAddCommand(s),
		newExpenseListCommand(s),
		newExpenseUpdateCommand(s),
		newExpenseDeleteCommand(s),
	)
	return cmd
}

type expenseFlags struct {
	amount    string
	category  string
	date      string
	notes     string
	merchant  string
	payment   string
	tags      []string
	recurring string
}

func (f *expenseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount spent, e.g. 12.50")
	cmd.Flags().StringVar(&f.category, "category", "", "expense category")
	cmd.Flags().StringVar(&f.date, "date", "", "expense date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&f.merchant, "merchant", "", "merchant name")
	cmd.Flags().StringVar(&f.payment, "payment", string(core.Cash), "payment method (cash, credit, debit, bankTransfer, paypal, venmo, applePay, other)")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "tag, repeatable")
	cmd.Flags().StringVar(&f.recurring, "recurring", "", "repeat frequency (daily, weekly, biweekly, monthly, quarterly, yearly)")
}

// apply copies every flag that was set on cmd onto e.
func (f *expenseFlags) apply(cmd *cobra.Command, e *core.Expense) error {
	changed := cmd.Flags().Changed
	if changed("amount") {
		amount, err := parseAmount("amount", f.amount)
		if err != nil {
			return err
		}
		e.Amount = amount
	}
	if changed("category") {
		e.Category = strings.TrimSpace(f.category)
	}
	if changed("date") {
		date, err := parseDate("date", f.date, e.Date)
		if err != nil {
			return err
		}
		e.Date = date
	}
	if changed("notes") {
		e.Notes = f.notes
	}
	if changed("merchant") {
		e.Merchant = f.merchant
	}
	if changed("payment") {
		p, err := parsePayment(f.payment)
		if err != nil {
			return err
		}
		e.PaymentMethod = p
	}
	if changed("tag") {
		e.Tags = f.tags
	}
	if changed("recurring") {
		if f.recurring == "" {
			e.IsRecurring, e.RecurringFrequency = false, ""
		} else {
			freq, err := core.ParseFrequency(f.recurring)
			if err != nil {
				return fmt.Errorf("--recurring %q: %w", f.recurring, err)
			}
			e.IsRecurring, e.RecurringFrequency = true, freq
		}
	}
	return nil
}

func newExpenseAddCommand(s *session) *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := core.NewExpense(decimal.Zero, "", today(s.app.Ledger().Now()))
			if err := f.apply(cmd, &e); err != nil {
				return err
			}

			saved, res, err := s.app.Finance.AddExpense(ctx, e)
			if err != nil {
				return err
			}
			log.NewStructuredLogger(s.app.Logger).LogExpenseCreated(ctx, saved.ID.String(), saved.Category, saved.Amount, "")

			out := cmd.OutOrStdout()
			printSuccess(out, "Added expense %s: %s %s on %s", saved.ID, core.FormatAmount(saved.Amount), saved.Category, formatDate(saved.Date))
			printResult(out, res)
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func printResult(out io.Writer, res ledger.Result) {
	if res.Recurring != nil {
		printSuccess(out, "Created recurring transaction %q (%s), next due %s",
			res.Recurring.Name, res.Recurring.Frequency, formatDate(res.Recurring.NextDue))
	}
	for _, a := range res.Alerts {
		printAlert(out, a)
	}
}

func printAlert(out io.Writer, a core.BudgetAlert) {
	switch a.Severity {
	case core.SeverityCritical:
		fmt.Fprintln(out, errorStyle.Render("! "+a.Message))
	case core.SeverityWarning:
		printWarning(out, "! %s", a.Message)
	default:
		fmt.Fprintln(out, "* "+a.Message)
	}
}

func newExpenseListCommand(s *session) *cobra.Command {
	var category, month, from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter ledger.ExpenseFilter
			var err error
			filter.Category = strings.TrimSpace(category)
			if month != "" {
				if filter.Month, err = parseDate("month", month+"-01", filter.Month); err != nil {
					return err
				}
			}
			if filter.From, err = parseDate("from", from, filter.From); err != nil {
				return err
			}
			if filter.To, err = parseDate("to", to, filter.To); err != nil {
				return err
			}

			expenses := s.app.Ledger().Expenses(filter)
			out := cmd.OutOrStdout()
			if len(expenses) == 0 {
				printEmpty(out, "No expenses found. Use 'fintrack expense add' to record one.")
				return nil
			}

			t := newTable(out, "ID", "DATE", "CATEGORY", "AMOUNT", "PAYMENT", "MERCHANT", "NOTES")
			for _, e := range expenses {
				t.row(e.ID.String(), formatDate(e.Date), e.Category, core.FormatAmount(e.Amount),
					string(e.PaymentMethod), orDash(e.Merchant), orDash(e.Notes))
			}
			if err := t.flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d expenses, total %s\n", len(expenses), core.FormatAmount(core.TotalOf(expenses)))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().StringVar(&from, "from", "", "on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "on or before (YYYY-MM-DD)")
	return cmd
}

func newExpenseUpdateCommand(s *session) *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("expense", args[0])
			if err != nil {
				return err
			}
			e, err := s.app.Ledger().Expense(id)
			if err != nil {
				return fmt.Errorf("expense %s: %w", id, err)
			}
			if err := f.apply(cmd, &e); err != nil {
				return err
			}
			saved, err := s.app.Finance.UpdateExpense(cmd.Context(), e)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Updated expense %s: %s %s", saved.ID, core.FormatAmount(saved.Amount), saved.Category)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newExpenseDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("expense", args[0])
			if err != nil {
				return err
			}
			if err := s.app.Finance.DeleteExpense(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted expense %s", id)
			return nil
		},
	}
}
