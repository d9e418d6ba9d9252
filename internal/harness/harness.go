package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tmadas/beamline/internal/config"
	"github.com/tmadas/beamline/internal/kernel"
	"github.com/tmadas/beamline/internal/physics"
)

// Run executes a scenario against the real resolve pipeline and returns the
// outcome.
//
// Each scenario runs on a fresh serial kernel for isolation. The pipeline is
// the production one end to end: the configuration document is parsed and
// schema-checked, module requests go through selection, and the composer
// drives the kernel through a recording registrar that captures every
// registration call as the trace.
//
// Execution flow:
//  1. Parse the inline configuration document
//  2. Select modules from the configured requests
//  3. Compose the setup into a fresh kernel, recording the trace
//  4. Apply production cuts
//  5. Check composition invariants and evaluate assertions
func Run(scenario *Scenario) *Result {
	result := NewResult()
	recorder := &warningRecorder{}
	logger := slog.New(recorder)

	cfg, err := config.Parse(scenario.Name+".yml", []byte(scenario.Config))
	if err != nil {
		return resolveOutcome(scenario, result, recorder, err)
	}

	setup, err := physics.NewSelector(logger).Select(cfg.ModuleRequests())
	if err != nil {
		return resolveOutcome(scenario, result, recorder, err)
	}

	kern := kernel.New(0, 0, kernel.Gun{}, nil, kernel.WithLogger(logger))
	reg := &recordingRegistrar{kern: kern, result: result}
	if err := physics.NewComposer(logger).Compose(context.Background(), reg, setup, cfg.Physics.IonStepLimits); err != nil {
		return resolveOutcome(scenario, result, recorder, err)
	}
	physics.ApplyCuts(kern, cfg.Physics.Cuts.Spec(), cfg.Physics.Window())

	result.EM = setup.EMName()
	for _, m := range setup.Modules() {
		result.Modules = append(result.Modules, m.Name())
	}
	result.Warnings = recorder.Entries()

	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected a failure containing %q, composition succeeded", scenario.ExpectError))
		return result
	}

	for _, problem := range CheckComposition(kern) {
		result.AddError(problem)
	}
	evaluateAssertions(result, kern, scenario.Assertions)
	return result
}

// resolveOutcome settles a pipeline failure against the scenario's
// expectation. An expected failure passes; anything else fails the result.
func resolveOutcome(scenario *Scenario, result *Result, recorder *warningRecorder, err error) *Result {
	result.Warnings = recorder.Entries()
	if scenario.ExpectError == "" {
		result.AddError(fmt.Sprintf("resolve failed: %v", err))
		return result
	}
	if !strings.Contains(err.Error(), scenario.ExpectError) {
		result.AddError(fmt.Sprintf("expected a failure containing %q, got: %v", scenario.ExpectError, err))
	}
	return result
}

// recordingRegistrar delegates every registration call to the kernel and
// appends a trace event for it. Query calls pass through unrecorded.
type recordingRegistrar struct {
	kern   *kernel.Kernel
	result *Result
}

func (r *recordingRegistrar) AddTransportation() {
	r.result.addTrace(TraceEvent{Op: "transportation"})
	r.kern.AddTransportation()
}

func (r *recordingRegistrar) ConstructParticles(names []string) {
	for _, name := range names {
		r.result.addTrace(TraceEvent{Op: "construct", Particle: name})
	}
	r.kern.ConstructParticles(names)
}

func (r *recordingRegistrar) RegisterProcess(particle, label string) {
	r.result.addTrace(TraceEvent{Op: "register", Particle: particle, Label: label})
	r.kern.RegisterProcess(particle, label)
}

func (r *recordingRegistrar) Particles() []string {
	return r.kern.Particles()
}

func (r *recordingRegistrar) EnsureIon(z, a int) string {
	name := r.kern.EnsureIon(z, a)
	r.result.addTrace(TraceEvent{Op: "ion", Particle: name})
	return name
}

func (r *recordingRegistrar) ConfigureRadioactiveDecay(opts physics.RadioactiveDecayOptions) {
	r.result.addTrace(TraceEvent{
		Op: "radioactive-decay",
		Detail: fmt.Sprintf("threshold=%s icm=%s arm=%s",
			opts.Threshold, toggleWord(opts.ICM), toggleWord(opts.ARM)),
	})
	r.kern.ConfigureRadioactiveDecay(opts)
}

func (r *recordingRegistrar) ApplyCommand(ctx context.Context, cmd string) error {
	r.result.addTrace(TraceEvent{Op: "command", Detail: cmd})
	return r.kern.ApplyCommand(ctx, cmd)
}

func toggleWord(v *bool) string {
	if v == nil {
		return "default"
	}
	return fmt.Sprintf("%t", *v)
}

// warningRecorder is a slog.Handler that keeps warning-level records as
// rendered lines, for warning assertions and the result snapshot.
type warningRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (h *warningRecorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (h *warningRecorder) Handle(_ context.Context, rec slog.Record) error {
	var b strings.Builder
	b.WriteString(rec.Message)
	rec.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})

	h.mu.Lock()
	h.entries = append(h.entries, b.String())
	h.mu.Unlock()
	return nil
}

func (h *warningRecorder) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *warningRecorder) WithGroup(string) slog.Handler { return h }

// Entries returns the captured lines in emission order.
func (h *warningRecorder) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
