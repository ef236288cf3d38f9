// Package cli implements the relumip command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/relumip/pkg/errors"
	"github.com/YuminosukeSato/relumip/pkg/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidLogLevels defines the allowed --log-level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// NewRootCommand creates the root command for the relumip CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relumip",
		Short: "relumip - ReLU networks as mixed-integer programs",
		Long: `Encode trained feed-forward ReLU networks as big-M MILP models,
compute the pre-activation bounds behind the big-M constants and
evaluate or optimize the network through the encoding.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !contains(ValidFormats, opts.Format) {
				return errors.Newf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !contains(ValidLogLevels, opts.LogLevel) {
				return errors.Newf("invalid log level %q: must be one of %v", opts.LogLevel, ValidLogLevels)
			}
			level := opts.LogLevel
			if opts.Verbose {
				level = "debug"
			}
			// Logs go to stderr so that JSON on stdout stays clean.
			log.SetupLoggerWithWriter(cmd.ErrOrStderr(), level)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logs)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewBoundsCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewOptimizeCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
