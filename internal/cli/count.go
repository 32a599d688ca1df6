package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c3foc/hagrid/internal/app"
	"github.com/c3foc/hagrid/internal/domain"
)

// NewCountCommand creates the count command group: the counter-facing flow
// of requesting an assignment, submitting a count, and giving one back.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Counter workflow: request, submit, report",
	}

	cmd.AddCommand(newCountNextCommand(rootOpts))
	cmd.AddCommand(newCountSubmitCommand(rootOpts))
	cmd.AddCommand(newCountUnableCommand(rootOpts))
	cmd.AddCommand(newCountScopeCommand(rootOpts))

	return cmd
}

func newCountNextCommand(rootOpts *RootOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:           "next",
		Short:         "Reserve the highest-priority variation for counting",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			assignment, err := rt.assignmentService().RequestNext(cmd.Context(), code)
			if err != nil {
				return err
			}
			if assignment == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to count right now")
				return nil
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), assignment)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "assigned: %s\n", assignment.Variation.Label())
			fmt.Fprintf(out, "  variation:      %s\n", assignment.Variation.ID)
			fmt.Fprintf(out, "  version:        %d\n", assignment.Variation.CountVersion)
			fmt.Fprintf(out, "  last count:     %s\n", formatCount(assignment.Variation.Count))
			fmt.Fprintf(out, "  priority:       %.3f (%s)\n", assignment.Priority.Total, assignment.Priority.TopReason)
			fmt.Fprintf(out, "  reserved until: %s\n", assignment.ReservedUntil.Format("15:04:05"))
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "access code (required)")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newCountSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		code        string
		variationID string
		count       int
		version     int64
		name        string
		comment     string
	)

	cmd := &cobra.Command{
		Use:           "submit",
		Short:         "Submit a counted value for a variation",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			entry := app.CountSubmission{VariationID: variationID, Count: count}
			if cmd.Flags().Changed("version") {
				entry.ExpectedVersion = &version
			}

			result, err := rt.assignmentService().SubmitCounts(cmd.Context(), app.SubmitInput{
				Code:    code,
				Entries: []app.CountSubmission{entry},
				Name:    name,
				Comment: comment,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %d count(s), %d changed\n", result.Total, result.ItemsChanged)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "access code (required)")
	cmd.Flags().StringVar(&variationID, "variation", "", "variation id (required)")
	cmd.Flags().IntVar(&count, "count", 0, "counted amount (required)")
	cmd.Flags().Int64Var(&version, "version", 0, "expected count version from the assignment")
	cmd.Flags().StringVar(&name, "name", "", "counter's name for the log")
	cmd.Flags().StringVar(&comment, "comment", "", "free-form note")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("variation")
	_ = cmd.MarkFlagRequired("count")

	return cmd
}

func newCountUnableCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		code        string
		variationID string
		reason      string
	)

	cmd := &cobra.Command{
		Use:   "unable",
		Short: "Give an assignment back without a count",
		Long: `Give an assignment back without a count.

Reasons: need_to_go releases the variation immediately; cannot_find,
something_wrong and other put it on a cooldown so the next counter does not
run into the same problem.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			err = rt.assignmentService().ReportUnable(cmd.Context(), code, variationID, domain.UnableReason(reason))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "assignment released")
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "access code (required)")
	cmd.Flags().StringVar(&variationID, "variation", "", "variation id (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "need_to_go|cannot_find|something_wrong|other (required)")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("variation")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func newCountScopeCommand(rootOpts *RootOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:           "scope",
		Short:         "List the variations an access code may count",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			variations, err := rt.assignmentService().ListScope(cmd.Context(), code)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), variations)
			}

			table := newTable(cmd.OutOrStdout())
			fmt.Fprintln(table, "VARIATION\tPRODUCT\tSIZE\tCOUNT\tAVAILABILITY")
			for _, v := range variations {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n",
					v.ID, v.ProductName, v.SizeName, formatCount(v.Count), v.Availability)
			}
			return table.Flush()
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "access code (required)")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}
