package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmadas/beamline/internal/config"
)

// RootOptions holds the global flags shared by every command.
type RootOptions struct {
	Format    string // "json" | "text"
	Verbosity string // log level name, see config.Verbosity
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidVerbosities defines the allowed log verbosity levels.
var ValidVerbosities = []string{"silent", "essential", "info", "verbose", "debug"}

// NewRootCommand creates the root command for the beamline CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "beamline",
		Short: "Beamline particle-transport run orchestration",
		Long: `Beamline configures and drives particle-transport simulation runs:
physics module selection, kernel composition, event execution, and the
SQLite output artifact.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isOneOf(opts.Format, ValidFormats) {
				return NewExitError(ExitUsageError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !isOneOf(opts.Verbosity, ValidVerbosities) {
				return NewExitError(ExitUsageError,
					fmt.Sprintf("invalid verbosity %q: must be one of %v", opts.Verbosity, ValidVerbosities))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Verbosity, "verbosity", string(config.VerbosityInfo),
		"log verbosity (silent|essential|info|verbose|debug)")

	// Flag parse failures are usage errors, not domain failures.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitUsageError, "invalid usage", err)
	})

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

// isOneOf checks whether value is one of the allowed choices.
func isOneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}

// exactArgs wraps cobra.ExactArgs so argument-count mistakes carry the usage
// exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitUsageError, "invalid usage", err)
		}
		return nil
	}
}

// newLogger builds the process logger for a verbosity level. Silent discards
// everything; every other level writes text records to stderr.
func newLogger(v config.Verbosity) *slog.Logger {
	if v == config.VerbositySilent {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: v.Level()}))
}
