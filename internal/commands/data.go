package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"fintrack/internal/seed"
)

func newSeedCommand(s *session) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo data or a YAML fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := seed.Sample()
			if file != "" {
				var err error
				if ds, err = seed.LoadFile(file); err != nil {
					return err
				}
			}
			data, err := s.app.Finance.PopulateSampleData(cmd.Context(), ds)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Loaded %d expenses, %d budgets, %d goals and %d recurring transactions",
				len(data.Expenses), len(data.Budgets), len(data.Goals), len(data.Recurring))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML dataset to load instead of the built-in demo data")
	return cmd
}

func newResetCommand(s *session) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all data without --yes")
			}
			if err := s.app.Finance.Reset(cmd.Context()); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "All data deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting everything")
	return cmd
}
