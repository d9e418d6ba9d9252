package run

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/tmadas/beamline/internal/config"
	"github.com/tmadas/beamline/internal/geometry"
	"github.com/tmadas/beamline/internal/kernel"
	"github.com/tmadas/beamline/internal/meta"
	"github.com/tmadas/beamline/internal/physics"
	"github.com/tmadas/beamline/internal/store"
)

// GeometrySection is the artifact section name the resolved geometry is
// archived under.
const GeometrySection = "Geometry"

// Orchestrator drives one run through the lifecycle state machine.
//
// A single goroutine calls Execute and owns every state mutation. Only
// RequestStop is safe from other goroutines; it raises an atomic flag that
// the beam loop polls at event boundaries and the interactive session polls
// at command boundaries. In-flight work always completes.
type Orchestrator struct {
	configPath string
	overrides  Overrides

	log *slog.Logger
	ids meta.IDGenerator
	now func() time.Time
	in  io.Reader
	out io.Writer

	interrupt atomic.Bool

	state       State
	history     []State
	interrupted bool

	cfg      *config.Config
	params   Parameters
	setup    *physics.Setup
	geo      *geometry.Document
	metadata meta.RunMetadata

	kern *kernel.Kernel
	st   *store.Store
	sink *artifactSink
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.log = logger
		}
	}
}

// WithIDGenerator overrides run-ID generation. Tests use
// meta.FixedGenerator for deterministic artifacts.
func WithIDGenerator(gen meta.IDGenerator) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.ids = gen
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithInput sets the interactive command source. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.in = r
		}
	}
}

// WithOutput sets the user stream for prompts and summaries. Defaults to
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) {
		if w != nil {
			o.out = w
		}
	}
}

// New creates an orchestrator for the configuration at configPath. The
// overrides replace file-sourced values before validation.
func New(configPath string, overrides Overrides, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		configPath: configPath,
		overrides:  overrides,
		log:        slog.Default(),
		ids:        meta.UUIDv7Generator{},
		now:        time.Now,
		in:         os.Stdin,
		out:        os.Stdout,
		state:      StateIdle,
		history:    []State{StateIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

// History returns every state the run has passed through, in order.
func (o *Orchestrator) History() []State {
	out := make([]State, len(o.history))
	copy(out, o.history)
	return out
}

// Metadata returns the resolved run metadata. Zero before Configuring
// finishes.
func (o *Orchestrator) Metadata() meta.RunMetadata {
	return o.metadata
}

// EventsProcessed returns how many events reached the artifact.
func (o *Orchestrator) EventsProcessed() int64 {
	if o.sink == nil {
		return 0
	}
	return o.sink.Stored()
}

// RequestStop raises the cooperative stop flag. Safe from any goroutine;
// typically wired to the interrupt signal handler.
func (o *Orchestrator) RequestStop() {
	o.interrupt.Store(true)
}

// Execute drives the full lifecycle: configure, initialize, run, finalize.
// A cooperative interruption is not an error; every path that reaches
// Running still finalizes the artifact. The returned error is fatal and
// maps to a non-zero process exit.
func (o *Orchestrator) Execute(ctx context.Context) error {
	if err := o.configure(); err != nil {
		return o.fail(err)
	}
	if err := o.initialize(ctx); err != nil {
		o.closeArtifact()
		return o.fail(err)
	}
	if err := o.beam(ctx); err != nil {
		o.closeArtifact()
		return o.fail(err)
	}
	if err := o.finalize(ctx); err != nil {
		o.closeArtifact()
		return o.fail(err)
	}
	return nil
}

// configure loads and validates everything the run needs before any kernel
// resource is allocated: configuration, parameters, physics selection,
// geometry, and metadata. Failures here leave nothing to clean up.
func (o *Orchestrator) configure() error {
	if err := o.transition(StateConfiguring); err != nil {
		return err
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.overrides.Apply(cfg)
	o.cfg = cfg

	params := ParametersFrom(cfg)
	if err := params.Validate(); err != nil {
		return err
	}
	o.params = params

	// Selection runs first so conflicting module requests fail while
	// failure is still cheap.
	setup, err := physics.NewSelector(o.log).Select(cfg.ModuleRequests())
	if err != nil {
		return err
	}
	o.setup = setup

	geo, err := geometry.Load(params.GeometryPath)
	if err != nil {
		return err
	}
	o.geo = geo

	digest, err := meta.ConfigDigest(cfg)
	if err != nil {
		return fmt.Errorf("configuration digest: %w", err)
	}

	o.metadata = meta.Resolve(meta.ResolveOptions{
		Title:          cfg.Title,
		Seed:           params.Seed,
		Events:         params.EventCount,
		DesiredEntries: params.DesiredEntries,
		TimeLimit:      params.TimeLimit,
		KernelVersion:  kernel.Version,
		ConfigDigest:   digest,
		IDs:            o.ids,
		Now:            o.now,
	})

	o.log.Info("run configured",
		"run_id", o.metadata.RunID,
		"tag", o.metadata.Tag,
		"seed", o.metadata.Seed,
		"events", params.EventCount,
		"geometry", geo.Path,
	)
	return nil
}

// initialize opens the output artifact, writes the run row, constructs the
// kernel, and wires detector, physics, and generator initializations.
func (o *Orchestrator) initialize(ctx context.Context) error {
	if err := o.transition(StateInitializing); err != nil {
		return err
	}

	st, err := store.Open(o.params.OutputPath)
	if err != nil {
		return err
	}
	o.st = st

	if err := st.CreateRun(ctx, o.metadata, StateInitializing.String()); err != nil {
		return err
	}

	// Event writes outlive a cancelled caller context: an in-flight event
	// always completes and reaches the artifact.
	o.sink = newArtifactSink(context.WithoutCancel(ctx), st, o.metadata.RunID)

	o.kern = kernel.New(
		o.params.ThreadCount,
		o.metadata.Seed,
		kernel.Gun{Particle: o.cfg.Generator.Particle, Count: o.cfg.Generator.Count},
		o.sink,
		kernel.WithLogger(o.log),
		kernel.WithStopRequested(o.shouldStop),
	)
	if o.kern.Mode() == kernel.ModeSerial {
		o.log.Info("serial kernel constructed")
	} else {
		o.log.Info("multi-threaded kernel constructed", "threads", o.params.ThreadCount)
	}

	o.log.Info("detector geometry registered",
		"path", o.geo.Path,
		"bytes", o.geo.Size(),
		"digest", o.geo.Digest,
	)

	if err := physics.NewComposer(o.log).Compose(ctx, o.kern, o.setup, o.cfg.Physics.IonStepLimits); err != nil {
		return err
	}
	physics.ApplyCuts(o.kern, o.cfg.Physics.Cuts.Spec(), o.cfg.Physics.Window())

	o.kern.Initialize()
	return nil
}

// beam executes the Running state: the batch command sequence when an event
// bound is configured, the interactive session otherwise.
func (o *Orchestrator) beam(ctx context.Context) error {
	if err := o.transition(StateRunning); err != nil {
		return err
	}

	var runErr error
	if o.params.Interactive() {
		o.log.Info("interactive session starting")
		sess := &session{
			kern: o.kern,
			in:   o.in,
			out:  o.out,
			log:  o.log,
			stop: o.shouldStop,
		}
		runErr = sess.run(ctx)
	} else {
		runErr = o.batch(ctx)
	}
	if runErr != nil {
		return runErr
	}

	if o.interrupt.Load() || ctx.Err() != nil {
		o.interrupted = true
		if err := o.transition(StateInterrupted); err != nil {
			return err
		}
		o.log.Info("run interrupted", "events", o.EventsProcessed())
	}
	return nil
}

// batch applies the fixed command sequence that executes EventCount events.
func (o *Orchestrator) batch(ctx context.Context) error {
	commands := []string{
		"/tracking/verbose 0",
		"/run/initialize",
		fmt.Sprintf("/run/beamOn %d", o.params.EventCount),
	}
	for _, cmd := range commands {
		if err := o.kern.ApplyCommand(ctx, cmd); err != nil {
			return fmt.Errorf("apply %q: %w", cmd, err)
		}
	}
	return nil
}

// finalize records the end timestamp, archives the geometry, completes the
// run row, closes the artifact, and prints the summary. A geometry archive
// failure is fatal.
func (o *Orchestrator) finalize(ctx context.Context) error {
	if err := o.transition(StateFinalizing); err != nil {
		return err
	}

	// Finalization completes even when the caller's context was cancelled;
	// the remaining writes are small and bounded.
	fctx := context.WithoutCancel(ctx)

	end := o.now()
	o.metadata.EndTime = end
	processed := o.EventsProcessed()

	if err := o.st.WriteSection(fctx, o.metadata.RunID, GeometrySection, o.geo.Raw); err != nil {
		return fmt.Errorf("archive geometry: %w", err)
	}

	status := StateCompleted.String()
	if o.interrupted {
		status = StateInterrupted.String()
	}
	if err := o.st.FinalizeRun(fctx, o.metadata.RunID, status, processed, end); err != nil {
		return err
	}
	if err := o.st.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	o.st = nil

	o.printSummary(processed)

	if err := o.transition(StateCompleted); err != nil {
		return err
	}
	o.log.Info("run completed",
		"run_id", o.metadata.RunID,
		"events", processed,
		"status", status,
	)
	return nil
}

// shouldStop is the cooperative stop predicate: the interrupt flag, the
// desired entry count, and the time limit, checked in that order. Polled by
// the kernel at event boundaries and by the session at command boundaries.
func (o *Orchestrator) shouldStop() bool {
	if o.interrupt.Load() {
		return true
	}
	if o.params.DesiredEntries > 0 && o.sink != nil && o.sink.Stored() >= o.params.DesiredEntries {
		return true
	}
	if o.params.TimeLimit > 0 && o.now().Sub(o.metadata.StartTime) >= o.params.TimeLimit {
		return true
	}
	return false
}

func (o *Orchestrator) printSummary(processed int64) {
	md := o.metadata
	abs, err := filepath.Abs(o.params.OutputPath)
	if err != nil {
		abs = o.params.OutputPath
	}

	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, "Run summary")
	fmt.Fprintf(o.out, "  run id    : %s\n", md.RunID)
	fmt.Fprintf(o.out, "  tag       : %s\n", md.Tag)
	fmt.Fprintf(o.out, "  type      : %s\n", md.Type)
	fmt.Fprintf(o.out, "  user      : %s\n", md.User)
	fmt.Fprintf(o.out, "  seed      : %d\n", md.Seed)
	fmt.Fprintf(o.out, "  kernel    : %s\n", md.KernelVersion)
	fmt.Fprintf(o.out, "  requested : %d\n", md.RequestedEvents)
	fmt.Fprintf(o.out, "  processed : %d\n", processed)
	fmt.Fprintf(o.out, "  started   : %s\n", md.StartTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(o.out, "  ended     : %s\n", md.EndTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(o.out, "============== Generated file: %s ==============\n", abs)
	fmt.Fprintf(o.out, "Elapsed time: %d seconds\n", int64(md.EndTime.Sub(md.StartTime).Seconds()))
}

func (o *Orchestrator) transition(to State) error {
	if !o.state.CanTransitionTo(to) {
		return &InvalidTransitionError{From: o.state, To: to}
	}
	o.log.Debug("lifecycle transition", "from", o.state.String(), "to", to.String())
	o.state = to
	o.history = append(o.history, to)
	return nil
}

// fail moves the lifecycle to Failed and returns err unchanged so callers
// map it to an exit code at the top-level boundary.
func (o *Orchestrator) fail(err error) error {
	if !o.state.IsTerminal() {
		o.state = StateFailed
		o.history = append(o.history, StateFailed)
	}
	o.log.Error("run failed", "error", err)
	return err
}

func (o *Orchestrator) closeArtifact() {
	if o.st == nil {
		return
	}
	if err := o.st.Close(); err != nil {
		o.log.Error("closing artifact", "error", err)
	}
	o.st = nil
}
