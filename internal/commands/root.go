// Package commands implements the fintrack command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/buildinfo"
	"fintrack/internal/log"
)

const closeTimeout = 10 * time.Second

// Execute runs the command line with args taken from os.Args and releases
// every resource opened by the invoked command.
func Execute(ctx context.Context) error {
	s := &session{}
	err := newRootCommand(s).ExecuteContext(ctx)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	return errors.Join(err, s.close(closeCtx))
}

// NewRootCommand creates the root CLI command bound to an already opened App.
func NewRootCommand(app *App) *cobra.Command {
	return newRootCommand(&session{app: app})
}

func newRootCommand(s *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fintrack",
		Short:   "Personal finance tracking: expenses, budgets, savings goals",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := s.open(cmd.Context(), cmd.ErrOrStderr()); err != nil {
				return err
			}
			cmd.SetContext(log.WithContext(cmd.Context(), s.app.Logger))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&s.envFile, "env-file", "", "load environment from this file instead of .env")

	rootCmd.AddCommand(
		newExpenseCommand(s),
		newBudgetCommand(s),
		newGoalCommand(s),
		newRecurringCommand(s),
		newInsightsCommand(s),
		newAlertsCommand(s),
		newSummaryCommand(s),
		newSeedCommand(s),
		newResetCommand(s),
		newAnalyticsCommand(s),
	)

	return rootCmd
}
