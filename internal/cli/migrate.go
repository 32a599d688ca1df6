package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c3foc/hagrid/migrations"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply pending database migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := migrations.Apply(cmd.Context(), rt.pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
