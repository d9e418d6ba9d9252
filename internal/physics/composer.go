package physics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// LongDecayTimeThreshold is the fixed cutoff above which radioactive decays
// count as very long lived and are handed back to the kernel default
// handling. There is no configuration override.
const LongDecayTimeThreshold = time.Nanosecond

// Step-limiter process labels. The lepton limiters are distinct per species;
// every ion shares the single ion label.
const (
	StepLimiterElectron = "e-Step"
	StepLimiterPositron = "e+Step"
	StepLimiterMuMinus  = "mu-Step"
	StepLimiterMuPlus   = "mu+Step"
	StepLimiterIon      = "ionStep"
)

// Transportation is the label of the baseline transportation process every
// particle receives.
const Transportation = "Transportation"

// EmOptions are the electromagnetic sub-options, resolved once from the EM
// module's request options and applied in a single composition step.
type EmOptions struct {
	Fluorescence bool
	Auger        bool
	PIXE         bool
}

// DefaultEmOptions returns the fixed defaults: fluorescence and Auger
// emission enabled, PIXE disabled.
func DefaultEmOptions() EmOptions {
	return EmOptions{Fluorescence: true, Auger: true, PIXE: false}
}

// ResolveEmOptions resolves EmOptions from a module request. Values are
// parsed case-insensitively as "true"/"false"; anything else keeps the
// default for that option.
func ResolveEmOptions(req ModuleRequest) EmOptions {
	opts := DefaultEmOptions()
	opts.Fluorescence = parseBoolOption(req.Option("fluo"), opts.Fluorescence)
	opts.Auger = parseBoolOption(req.Option("auger"), opts.Auger)
	opts.PIXE = parseBoolOption(req.Option("pixe"), opts.PIXE)
	return opts
}

func parseBoolOption(s string, def bool) bool {
	switch {
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	default:
		return def
	}
}

// RadioactiveDecayOptions parameterize the dedicated radioactive-decay
// process. A nil ICM/ARM leaves the kernel default untouched.
type RadioactiveDecayOptions struct {
	Threshold time.Duration
	ICM       *bool
	ARM       *bool
}

// Registrar is the kernel registration surface the composer drives. All
// registration calls are assumed to succeed; only the live command interface
// can report failure.
type Registrar interface {
	// AddTransportation registers the baseline transportation process for
	// every particle species, current and future.
	AddTransportation()

	// ConstructParticles ensures the named species exist in the particle
	// table. Constructing an existing species is a no-op.
	ConstructParticles(names []string)

	// RegisterProcess attaches a process with the given label to the named
	// species.
	RegisterProcess(particle, label string)

	// Particles returns the known species names in creation order.
	Particles() []string

	// EnsureIon creates the ion species (z, a) on demand and returns its
	// canonical name.
	EnsureIon(z, a int) string

	// ConfigureRadioactiveDecay applies the dedicated radioactive-decay
	// process parameters.
	ConfigureRadioactiveDecay(opts RadioactiveDecayOptions)

	// ApplyCommand executes one live kernel command. Run-level commands can
	// block; option toggles never do.
	ApplyCommand(ctx context.Context, cmd string) error
}

// Construct wires the module into the kernel: it constructs the species the
// kind defines and registers the kind's process set on each of them.
func (m *Module) Construct(reg Registrar) {
	reg.ConstructParticles(m.Kind.Particles())
	for _, p := range m.Kind.Particles() {
		reg.RegisterProcess(p, m.Name())
	}
}

// Composer wires a resolved Setup into the kernel.
type Composer struct {
	logger *slog.Logger
}

// NewComposer creates a Composer. A nil logger falls back to slog.Default.
func NewComposer(logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{logger: logger}
}

// Compose performs the full composition sequence, in order: baseline
// transportation, electromagnetic module plus its sub-options, decay,
// radioactive decay plus its dedicated process, hadronic modules in request
// order, lepton step limiters, and the bounded ion step-limiter scan.
//
// A nil registrar skips everything; an absent module skips its own steps.
// The only error source is the live command interface.
func (c *Composer) Compose(ctx context.Context, reg Registrar, setup *Setup, ionStepList []string) error {
	if reg == nil || setup == nil {
		return nil
	}

	reg.AddTransportation()

	if setup.EM != nil {
		setup.EM.Construct(reg)
		if err := c.applyEmOptions(ctx, reg, setup.EM); err != nil {
			return err
		}
	}

	if setup.Decay != nil {
		setup.Decay.Construct(reg)
	}

	if setup.RadioactiveDecay != nil {
		setup.RadioactiveDecay.Construct(reg)
		opts := RadioactiveDecayOptions{Threshold: LongDecayTimeThreshold}
		opts.ICM = c.resolveExactBool(setup.RadioactiveDecay.Request, "ICM")
		opts.ARM = c.resolveExactBool(setup.RadioactiveDecay.Request, "ARM")
		reg.ConfigureRadioactiveDecay(opts)
	}

	for _, m := range setup.Hadronic {
		m.Construct(reg)
	}

	c.attachLeptonLimiters(reg)
	c.attachIonLimiters(reg, ionStepList)

	return nil
}

// applyEmOptions resolves the three EM sub-options and emits one command
// per option through the live command interface.
func (c *Composer) applyEmOptions(ctx context.Context, reg Registrar, em *Module) error {
	opts := ResolveEmOptions(em.Request)
	commands := []string{
		fmt.Sprintf("/process/em/fluo %t", opts.Fluorescence),
		fmt.Sprintf("/process/em/auger %t", opts.Auger),
		fmt.Sprintf("/process/em/pixe %t", opts.PIXE),
	}
	for _, cmd := range commands {
		c.logger.Info("setting EM option", "command", cmd, "module", em.Name())
		if err := reg.ApplyCommand(ctx, cmd); err != nil {
			return fmt.Errorf("apply %q: %w", cmd, err)
		}
	}
	return nil
}

// resolveExactBool parses a radioactive-decay option. Only the exact strings
// "true" and "false" are applied; anything else, including an absent option,
// leaves the kernel default in effect and logs a diagnostic.
func (c *Composer) resolveExactBool(req ModuleRequest, key string) *bool {
	switch req.Option(key) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		c.logger.Warn("radioactive-decay option not defined, kernel default in effect",
			"option", key)
		return nil
	}
}

// attachLeptonLimiters walks every known species and attaches a dedicated
// step limiter to e-, e+, mu- and mu+, each under its own label. Species the
// selected modules never constructed are simply not present.
func (c *Composer) attachLeptonLimiters(reg Registrar) {
	for _, name := range reg.Particles() {
		switch name {
		case ParticleElectron:
			reg.RegisterProcess(name, StepLimiterElectron)
		case ParticlePositron:
			reg.RegisterProcess(name, StepLimiterPositron)
		case ParticleMuMinus:
			reg.RegisterProcess(name, StepLimiterMuMinus)
		case ParticleMuPlus:
			reg.RegisterProcess(name, StepLimiterMuPlus)
		}
	}
}

// attachIonLimiters runs the bounded ion scan: every Z in [1, IonScanMaxZ],
// every A in [2Z, 3Z]. Ions whose canonical name appears in the configured
// list are created on demand and get the shared ion step limiter. The scan
// cost is fixed by the bounds, not by the configured list size.
func (c *Composer) attachIonLimiters(reg Registrar, ionStepList []string) {
	wanted := make(map[string]bool, len(ionStepList))
	for _, name := range ionStepList {
		wanted[name] = true
	}
	for z := 1; z <= IonScanMaxZ; z++ {
		for a := ionMassMinFactor * z; a <= ionMassMaxFactor*z; a++ {
			name := IonName(z, a)
			if !wanted[name] {
				continue
			}
			ion := reg.EnsureIon(z, a)
			reg.RegisterProcess(ion, StepLimiterIon)
			c.logger.Info("ion step limiter attached", "ion", ion, "z", z, "a", a)
		}
	}
}
