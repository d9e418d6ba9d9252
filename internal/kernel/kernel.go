// Package kernel provides the in-process simulation kernel facade: a
// particle table with per-species process registrations, a production-cuts
// table, a live string-command interface, and serial or worker-pooled event
// execution.
//
// The facade owns no transport physics. An event is an opaque unit of work:
// primaries are drawn from the configured generator and the completed event
// record is handed to the event sink. What the facade does own is everything
// the orchestration layer observes: registration state, command handling,
// event counting, and cooperative stop behavior at event boundaries.
package kernel

import (
	"log/slog"
	"sync/atomic"

	"github.com/tmadas/beamline/internal/physics"
)

// Version is the kernel facade version recorded in run metadata.
const Version = "0.7.2"

// Mode selects how BeamOn executes events.
type Mode int

const (
	// ModeSerial processes events in the calling goroutine.
	ModeSerial Mode = iota
	// ModeMultiThreaded processes events on a fixed-size worker pool.
	ModeMultiThreaded
)

// String returns "serial" or "multi-threaded".
func (m Mode) String() string {
	if m == ModeSerial {
		return "serial"
	}
	return "multi-threaded"
}

// Event is one completed event as delivered to the sink.
type Event struct {
	ID        int64
	Seed      int64
	Primaries int
}

// EventSink receives completed events. Calls arrive from a single goroutine,
// in completion order. A sink error aborts the run.
type EventSink interface {
	RecordEvent(ev Event) error
}

// Particle is one species entry of the particle table. Ions additionally
// carry their atomic and mass numbers.
type Particle struct {
	Name string
	Z    int
	A    int

	processes []string
}

// Processes returns the process labels attached to the species, in
// registration order.
func (p *Particle) Processes() []string {
	out := make([]string, len(p.processes))
	copy(out, p.processes)
	return out
}

// cutsTable is the kernel-side production-cuts state.
type cutsTable struct {
	minKeV     float64
	maxKeV     float64
	defaultCut float64
	perSpecies map[string]float64
}

// emState tracks the electromagnetic sub-option toggles driven through the
// command interface.
type emState struct {
	Fluorescence bool
	Auger        bool
	PIXE         bool
}

// Kernel is the simulation kernel facade. Registration and command handling
// are single-threaded: the orchestration layer drives them from one
// goroutine. Only BeamOn fans out to workers, and those workers never touch
// the registration tables.
type Kernel struct {
	mode    Mode
	threads int
	seed    int64

	gen    Generator
	sink   EventSink
	stop   func() bool
	logger *slog.Logger

	transportation bool
	particles      map[string]*Particle
	order          []string

	cuts            cutsTable
	em              emState
	radDecay        *physics.RadioactiveDecayOptions
	trackingVerbose int

	initialized bool

	// eventSeq stamps every event with a unique increasing ID across all
	// BeamOn invocations of this kernel instance.
	eventSeq  atomic.Int64
	processed atomic.Int64
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the kernel logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithStopRequested sets the cooperative stop predicate polled at event
// boundaries. The default never stops.
func WithStopRequested(stop func() bool) Option {
	return func(k *Kernel) {
		if stop != nil {
			k.stop = stop
		}
	}
}

// New creates a kernel. threads == 0 selects serial execution, any positive
// count selects a worker pool of that size. The generator supplies event
// primaries; the sink receives completed events.
func New(threads int, seed int64, gen Generator, sink EventSink, opts ...Option) *Kernel {
	k := &Kernel{
		mode:      ModeSerial,
		threads:   threads,
		seed:      seed,
		gen:       gen,
		sink:      sink,
		stop:      func() bool { return false },
		logger:    slog.Default(),
		particles: make(map[string]*Particle),
		cuts:      cutsTable{perSpecies: make(map[string]float64)},
		em:        emState{Fluorescence: true, Auger: true, PIXE: false},
	}
	if threads > 0 {
		k.mode = ModeMultiThreaded
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.gen == nil {
		k.gen = Gun{}
	}
	if k.sink == nil {
		k.sink = discardSink{}
	}

	// The geantino pseudo-particle is always defined, independent of
	// module selection.
	k.createParticle(physics.ParticleGeantino, 0, 0)

	return k
}

// Mode returns the execution mode selected at construction.
func (k *Kernel) Mode() Mode { return k.mode }

// Threads returns the configured worker count (0 in serial mode).
func (k *Kernel) Threads() int { return k.threads }

// Seed returns the run seed events derive their per-event seeds from.
func (k *Kernel) Seed() int64 { return k.seed }

// Initialized reports whether Initialize has run.
func (k *Kernel) Initialized() bool { return k.initialized }

// EventsProcessed returns the total number of events completed across all
// BeamOn invocations.
func (k *Kernel) EventsProcessed() int64 { return k.processed.Load() }

// Initialize finalizes the registration phase. It must run before BeamOn.
func (k *Kernel) Initialize() {
	if k.initialized {
		return
	}
	k.initialized = true
	k.logger.Info("kernel initialized",
		"mode", k.mode.String(),
		"threads", k.threads,
		"particles", len(k.order),
	)
}

func (k *Kernel) createParticle(name string, z, a int) *Particle {
	if p, ok := k.particles[name]; ok {
		return p
	}
	p := &Particle{Name: name, Z: z, A: a}
	if k.transportation {
		p.processes = append(p.processes, physics.Transportation)
	}
	k.particles[name] = p
	k.order = append(k.order, name)
	return p
}

// AddTransportation registers the baseline transportation process on every
// known species and on every species created afterwards.
func (k *Kernel) AddTransportation() {
	if k.transportation {
		return
	}
	k.transportation = true
	for _, name := range k.order {
		p := k.particles[name]
		p.processes = append([]string{physics.Transportation}, p.processes...)
	}
}

// ConstructParticles ensures the named species exist. Existing species are
// left untouched.
func (k *Kernel) ConstructParticles(names []string) {
	for _, name := range names {
		k.createParticle(name, 0, 0)
	}
}

// RegisterProcess attaches a process label to the named species. Unknown
// species are created on the spot; registration never fails.
func (k *Kernel) RegisterProcess(particle, label string) {
	p := k.createParticle(particle, 0, 0)
	p.processes = append(p.processes, label)
}

// Particles returns all species names in creation order.
func (k *Kernel) Particles() []string {
	out := make([]string, len(k.order))
	copy(out, k.order)
	return out
}

// Particle returns the species entry for name.
func (k *Kernel) Particle(name string) (*Particle, bool) {
	p, ok := k.particles[name]
	return p, ok
}

// EnsureIon creates the ion species (z, a) on demand and returns its
// canonical name. Out-of-range nuclei are ignored and return "".
func (k *Kernel) EnsureIon(z, a int) string {
	name := physics.IonName(z, a)
	if name == "" {
		return ""
	}
	k.createParticle(name, z, a)
	return name
}

// ConfigureRadioactiveDecay stores the dedicated radioactive-decay process
// parameters.
func (k *Kernel) ConfigureRadioactiveDecay(opts physics.RadioactiveDecayOptions) {
	k.radDecay = &opts
}

// RadioactiveDecayConfig returns the configured radioactive-decay process
// parameters, or nil when the process was never configured.
func (k *Kernel) RadioactiveDecayConfig() *physics.RadioactiveDecayOptions {
	return k.radDecay
}

// EmOptions returns the current electromagnetic sub-option toggles.
func (k *Kernel) EmOptions() (fluo, auger, pixe bool) {
	return k.em.Fluorescence, k.em.Auger, k.em.PIXE
}

// SetEnergyRange bounds the production-cuts table, in keV.
func (k *Kernel) SetEnergyRange(minKeV, maxKeV float64) {
	k.cuts.minKeV, k.cuts.maxKeV = minKeV, maxKeV
}

// SetDefaultCut sets the default production cut in millimeters.
func (k *Kernel) SetDefaultCut(mm float64) {
	k.cuts.defaultCut = mm
}

// SetCut sets a per-species production cut in millimeters, overriding the
// default for that species.
func (k *Kernel) SetCut(particle string, mm float64) {
	k.cuts.perSpecies[particle] = mm
}

// CutFor returns the effective production cut for a species: the override
// when present, the default otherwise.
func (k *Kernel) CutFor(particle string) float64 {
	if mm, ok := k.cuts.perSpecies[particle]; ok {
		return mm
	}
	return k.cuts.defaultCut
}

// EnergyRange returns the production-cuts energy window in keV.
func (k *Kernel) EnergyRange() (minKeV, maxKeV float64) {
	return k.cuts.minKeV, k.cuts.maxKeV
}

// discardSink drops events. Used when no sink is configured.
type discardSink struct{}

func (discardSink) RecordEvent(Event) error { return nil }
