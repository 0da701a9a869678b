package commands

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func newInsightsCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show generated spending, budget and savings insights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			insights := s.app.Ledger().Insights()
			out := cmd.OutOrStdout()
			if len(insights) == 0 {
				printEmpty(out, "No insights yet. Add a few expenses, budgets or goals first.")
				return nil
			}
			for _, in := range insights {
				title := fmt.Sprintf("%s [%s]", in.Title, in.Priority)
				switch in.Priority {
				case core.InsightUrgent, core.InsightHigh:
					fmt.Fprintln(out, errorStyle.Render(title))
				default:
					printTitle(out, title)
				}
				fmt.Fprintf(out, "  %s\n  %s (%s)\n", in.Description, in.Value, in.Category)
			}
			return nil
		},
	}
}

func newAlertsCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Review budget and goal alerts",
	}
	cmd.AddCommand(newAlertsListCommand(s), newAlertsReadCommand(s))
	return cmd
}

func newAlertsListCommand(s *session) *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			alerts := s.app.Ledger().Alerts()
			if unread {
				alerts = slices.DeleteFunc(alerts, func(a core.BudgetAlert) bool { return a.IsRead })
			}
			out := cmd.OutOrStdout()
			if len(alerts) == 0 {
				printEmpty(out, "No alerts.")
				return nil
			}
			t := newTable(out, "ID", "DATE", "SEVERITY", "TYPE", "READ", "MESSAGE")
			for _, a := range alerts {
				t.row(a.ID.String(), formatDate(a.CreatedAt), string(a.Severity), string(a.Type), fmt.Sprint(a.IsRead), a.Message)
			}
			if err := t.flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d unread\n", s.app.Ledger().UnreadAlerts())
			return nil
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread alerts")
	return cmd
}

func newAlertsReadCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark an alert as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("alert", args[0])
			if err != nil {
				return err
			}
			if err := s.app.Finance.MarkAlertRead(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Marked alert %s as read", id)
			return nil
		},
	}
}

func newSummaryCommand(s *session) *cobra.Command {
	var months int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show monthly spending totals by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overviews := s.app.Ledger().Summary()
			out := cmd.OutOrStdout()
			if len(overviews) == 0 {
				printEmpty(out, "No expenses recorded.")
				return nil
			}
			if months > 0 && len(overviews) > months {
				overviews = overviews[len(overviews)-months:]
			}
			for _, mo := range overviews {
				printTitle(out, fmt.Sprintf("%s %d: %s in %d expenses", mo.Month, mo.Year, core.FormatAmount(mo.Total), mo.Count))
				t := newTable(out, "CATEGORY", "AMOUNT")
				for _, c := range mo.ByCategory {
					t.row(c.Name, core.FormatAmount(c.Amount))
				}
				if err := t.flush(); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&months, "months", 0, "only the most recent N months")
	return cmd
}

func newAnalyticsCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Summarize recorded usage events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if s.app.Analytics == nil {
				printEmpty(out, "Analytics are disabled (ANALYTICS_ENABLED=false).")
				return nil
			}
			ov := s.app.Analytics.Overview(s.app.Ledger().Now())
			printTitle(out, "Usage")
			fmt.Fprintf(out, "Total events:      %d\n", ov.TotalEvents)
			fmt.Fprintf(out, "Last 7 days:       %d\n", ov.EventsLastWeek)
			fmt.Fprintf(out, "Most active day:   %s\n", ov.MostActiveDay)
			if len(ov.EventsByCategory) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			t := newTable(out, "CATEGORY", "EVENTS")
			for _, c := range slices.Sorted(maps.Keys(ov.EventsByCategory)) {
				t.row(c, fmt.Sprint(ov.EventsByCategory[c]))
			}
			return t.flush()
		},
	}
}
