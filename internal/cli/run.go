package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmadas/beamline/internal/config"
	"github.com/tmadas/beamline/internal/run"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	Events    int64
	Threads   int
	Seed      int64
	Entries   int64
	TimeLimit time.Duration
	Output    string
	Geometry  string

	// InteractiveInput feeds the interactive session from a file instead of
	// stdin, for scripted sessions.
	InteractiveInput string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config.yml>",
		Short: "Execute a simulation run",
		Long: `Execute one simulation run through its full lifecycle.

The configuration file selects physics modules, geometry, generator, and
run parameters; flags override individual file values. With an event count
of 0 the run is interactive: kernel commands are read line by line and the
batch execution sequence is never issued.

An interrupt signal requests a cooperative stop: the in-flight event
completes, the artifact is finalized, and the process exits 0.

Example:
  beamline run run.yml
  beamline run run.yml --events 5000 --threads 8 --output out/run.db`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Events, "events", 0, "event count (0 for interactive)")
	cmd.Flags().IntVar(&opts.Threads, "threads", 0, "worker count (0 for serial)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "run seed (0 derives one from the clock)")
	cmd.Flags().Int64Var(&opts.Entries, "entries", 0, "stop after this many stored entries (0 for unbounded)")
	cmd.Flags().DurationVar(&opts.TimeLimit, "time-limit", 0, "stop after this wall-clock duration (0 for unbounded)")
	cmd.Flags().StringVar(&opts.Output, "output", "", "output artifact path")
	cmd.Flags().StringVar(&opts.Geometry, "geometry", "", "geometry file path")
	cmd.Flags().StringVar(&opts.InteractiveInput, "interactive-input", "",
		"read interactive commands from this file instead of stdin")

	return cmd
}

func runRun(opts *RunOptions, configPath string, cmd *cobra.Command) error {
	logger := newLogger(runVerbosity(opts, configPath, cmd))
	slog.SetDefault(logger)

	runOpts := []run.Option{
		run.WithLogger(logger),
		run.WithOutput(cmd.OutOrStdout()),
	}
	if opts.InteractiveInput != "" {
		in, err := os.Open(opts.InteractiveInput)
		if err != nil {
			return WrapExitError(ExitFailure, "open interactive input", err)
		}
		defer in.Close()
		runOpts = append(runOpts, run.WithInput(in))
	}

	orch := run.New(configPath, collectOverrides(opts, cmd), runOpts...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	// One signal in the surface: os.Interrupt raises the cooperative stop
	// flag. The run finalizes normally, so no context cancellation here.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Info("interrupt received, stopping at next event boundary")
			orch.RequestStop()
		case <-ctx.Done():
		}
	}()

	if err := orch.Execute(ctx); err != nil {
		return WrapExitError(ExitFailure, "run failed", err)
	}
	return nil
}

// collectOverrides turns explicitly set flags into configuration overrides.
// Only changed flags override; defaults never mask file values.
func collectOverrides(opts *RunOptions, cmd *cobra.Command) run.Overrides {
	var ov run.Overrides
	flags := cmd.Flags()
	if flags.Changed("events") {
		ov.Events = &opts.Events
	}
	if flags.Changed("threads") {
		ov.Threads = &opts.Threads
	}
	if flags.Changed("seed") {
		ov.Seed = &opts.Seed
	}
	if flags.Changed("entries") {
		ov.DesiredEntries = &opts.Entries
	}
	if flags.Changed("time-limit") {
		ov.TimeLimit = &opts.TimeLimit
	}
	if flags.Changed("output") {
		ov.OutputPath = &opts.Output
	}
	if flags.Changed("geometry") {
		ov.GeometryPath = &opts.Geometry
	}
	return ov
}

// runVerbosity resolves the log level for a run. An explicit --verbosity flag
// wins; otherwise the configuration's verbosity field is read leniently. A
// load failure falls back to the flag default here and surfaces as the real
// error when the orchestrator loads the file itself.
func runVerbosity(opts *RunOptions, configPath string, cmd *cobra.Command) config.Verbosity {
	if f := cmd.Flag("verbosity"); f != nil && f.Changed {
		return config.Verbosity(opts.Verbosity)
	}
	if cfg, err := config.Load(configPath); err == nil {
		return cfg.Verbosity
	}
	return config.Verbosity(opts.Verbosity)
}
