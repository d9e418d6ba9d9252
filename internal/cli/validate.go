package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmadas/beamline/internal/config"
	"github.com/tmadas/beamline/internal/physics"
)

// ValidationResult holds the validate command's outcome.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Source  string   `json:"source"`
	Modules []string `json:"modules,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yml>",
		Short: "Validate a run configuration",
		Long: `Validate a run configuration without constructing a kernel.

Checks the document against the schema and resolves the physics module
selection, including the electromagnetic conflict check. Nothing is
allocated and nothing is written.`,
		Args:          exactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // We produce our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
	logger := newLogger(config.Verbosity(opts.Verbosity))

	cfg, err := config.Load(configPath)
	if err != nil {
		return outputValidateError(formatter, "config", err)
	}

	setup, err := physics.NewSelector(logger).Select(cfg.ModuleRequests())
	if err != nil {
		return outputValidateError(formatter, "selection", err)
	}

	result := ValidationResult{Valid: true, Source: configPath}
	for _, m := range setup.Modules() {
		result.Modules = append(result.Modules, m.Name())
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", configPath)
	for _, name := range result.Modules {
		fmt.Fprintf(formatter.Writer, "  module: %s\n", name)
	}
	return nil
}

// outputValidateError reports the failure in the configured format and maps
// it to the fatal exit code.
func outputValidateError(formatter *OutputFormatter, stage string, err error) error {
	_ = formatter.Error(stage, err.Error(), nil)
	return WrapExitError(ExitFailure, "validation failed", err)
}
