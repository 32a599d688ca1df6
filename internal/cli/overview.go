package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewOverviewCommand creates the overview command group: the operator's
// priority table and its admin actions.
func NewOverviewCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show the counting priority table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			rows, err := rt.overviewService().Overview(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}

			table := newTable(cmd.OutOrStdout())
			fmt.Fprintln(table, "PRIORITY\tREASON\tPRODUCT\tSIZE\tCOUNT\tEST\tRATE/H\tAGE")
			for _, row := range rows {
				fmt.Fprintf(table, "%.3f\t%s\t%s\t%s\t%s\t%.0f\t%.1f\t%s\n",
					row.Priority.Total,
					row.Priority.TopReason,
					row.Variation.ProductName,
					row.Variation.SizeName,
					formatCount(row.Variation.Count),
					row.Priority.Info.EstimatedCount,
					row.Priority.Info.SaleRatePerHour,
					row.Priority.Info.CountAge.Round(time.Minute))
			}
			return table.Flush()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newOverviewBumpCommand(rootOpts, true))
	cmd.AddCommand(newOverviewBumpCommand(rootOpts, false))
	cmd.AddCommand(newOverviewClearDisabledCommand(rootOpts))
	cmd.AddCommand(newOverviewLogCommand(rootOpts))

	return cmd
}

func newOverviewBumpCommand(rootOpts *RootOptions, bumped bool) *cobra.Command {
	use, short := "bump <variation-id>", "Pin a variation to the top of the queue"
	if !bumped {
		use, short = "unbump <variation-id>", "Remove a variation's manual priority"
	}

	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.overviewService().Bump(cmd.Context(), args[0], bumped); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newOverviewClearDisabledCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear-disabled <variation-id>",
		Short:         "Clear a variation's cooldown before it expires",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.overviewService().ClearDisabled(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newOverviewLogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "log",
		Short:         "Show submitted counts, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			entries, err := rt.overviewService().CountLog(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), entries)
			}

			table := newTable(cmd.OutOrStdout())
			fmt.Fprintln(table, "AT\tVARIATION\tCOUNT\tNAME\tAGE\tCOMMENT")
			for _, e := range entries {
				fmt.Fprintf(table, "%s\t%s\t%d\t%s\t%s\t%s\n",
					e.Event.At.Format("Mon 15:04"),
					e.Event.VariationID,
					e.Event.Count,
					e.Event.Name,
					e.Age.Round(time.Minute),
					e.Event.Comment)
			}
			return table.Flush()
		},
	}
}
