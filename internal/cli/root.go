package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the hagrid CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hagrid",
		Short: "hagrid - counting-task scheduler for temporary event stores",
		Long: `hagrid keeps merch stock counts fresh during an event.

It tracks what the store has, decides which variation most urgently needs a
recount, hands counting tasks out to volunteers over short leases, and
projects when each item will sell out.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", ".", "directory containing the app.env config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewOverviewCommand(opts))
	cmd.AddCommand(NewForecastCommand(opts))
	cmd.AddCommand(NewScheduleCommand(opts))
	cmd.AddCommand(NewCountingCommand(opts))
	cmd.AddCommand(NewCodeCommand(opts))

	return cmd
}

func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
