package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/c3foc/hagrid/internal/app"
	"github.com/c3foc/hagrid/internal/domain"
)

// NewScheduleCommand creates the schedule command group for the open/closed
// status ledger.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage the store's open/closed schedule",
	}

	cmd.AddCommand(newScheduleListCommand(rootOpts))
	cmd.AddCommand(newScheduleAddCommand(rootOpts))
	cmd.AddCommand(newScheduleCurrentCommand(rootOpts))

	return cmd
}

func newScheduleListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all status changes in order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			changes, err := rt.scheduleService().List(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), changes)
			}

			table := newTable(cmd.OutOrStdout())
			fmt.Fprintln(table, "AT\tMODE\tCOMMENT")
			for _, c := range changes {
				fmt.Fprintf(table, "%s\t%s\t%s\n", c.At.Format("Mon 15:04"), c.Mode, c.Comment)
			}
			return table.Flush()
		},
	}
}

func newScheduleAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		mode       string
		at         string
		comment    string
		publicInfo string
	)

	cmd := &cobra.Command{
		Use:           "add",
		Short:         "Append a status change to the ledger",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			in := app.AppendStatusChangeInput{
				Mode:       domain.StatusMode(mode),
				Comment:    comment,
				PublicInfo: publicInfo,
			}
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				in.At = &parsed
			}

			change, err := rt.scheduleService().Append(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s at %s\n", change.Mode, change.At.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "closed|open|presale (required)")
	cmd.Flags().StringVar(&at, "at", "", "RFC3339 timestamp, defaults to now")
	cmd.Flags().StringVar(&comment, "comment", "", "internal note")
	cmd.Flags().StringVar(&publicInfo, "public-info", "", "text shown to counters during the interval")
	_ = cmd.MarkFlagRequired("mode")

	return cmd
}

func newScheduleCurrentCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "current",
		Short:         "Show the store status right now",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			status, err := rt.scheduleService().Current(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode: %s\n", status.Mode)
			if status.Since != nil {
				fmt.Fprintf(out, "since: %s\n", status.Since.Format(time.RFC3339))
			}
			if status.Until != nil {
				fmt.Fprintf(out, "until: %s\n", status.Until.Format(time.RFC3339))
			}
			if status.PublicInfo != "" {
				fmt.Fprintf(out, "info: %s\n", status.PublicInfo)
			}
			return nil
		},
	}
}

// NewCountingCommand creates the counting kill-switch commands.
func NewCountingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counting",
		Short: "Enable or disable counting store-wide",
	}

	for _, enabled := range []bool{true, false} {
		enabled := enabled
		use, short := "enable", "Allow counters to request and submit counts"
		if !enabled {
			use, short = "disable", "Reject all counter activity until re-enabled"
		}
		cmd.AddCommand(&cobra.Command{
			Use:           use,
			Short:         short,
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := newRuntime(cmd.Context(), rootOpts)
				if err != nil {
					return err
				}
				defer rt.close()

				if err := rt.scheduleService().SetCountingEnabled(cmd.Context(), enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "counting %sd\n", use)
				return nil
			},
		})
	}

	return cmd
}
