package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewForecastCommand creates the forecast command.
func NewForecastCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "forecast",
		Short:         "Project stock levels and sell-out times from count history",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.close()

			fc, err := rt.forecastService().Forecast(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), fc)
			}

			table := newTable(cmd.OutOrStdout())
			fmt.Fprintln(table, "ITEM\tSELLS OUT AT (event time)")
			for _, tl := range fc.Items {
				soldOut := "-"
				for _, seg := range tl.Segments {
					if seg.Level == 0 {
						soldOut = (time.Duration(seg.Start) * time.Second).String()
						break
					}
				}
				fmt.Fprintf(table, "%s\t%s\n", tl.Label, soldOut)
			}
			return table.Flush()
		},
	}
}
