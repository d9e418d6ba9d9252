package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmadas/beamline/internal/config"
	"github.com/tmadas/beamline/internal/kernel"
	"github.com/tmadas/beamline/internal/physics"
)

// PlanModule is one selected module of the physics plan.
type PlanModule struct {
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Options  map[string]string `json:"options,omitempty"`
}

// PlanEmOptions are the resolved electromagnetic sub-options.
type PlanEmOptions struct {
	Fluorescence bool `json:"fluorescence"`
	Auger        bool `json:"auger"`
	PIXE         bool `json:"pixe"`
}

// PlanRadioactiveDecay is the resolved radioactive-decay process setup. ICM
// and ARM read "true", "false", or "kernel default" when the option was not
// an exact boolean.
type PlanRadioactiveDecay struct {
	ThresholdNs int64  `json:"threshold_ns"`
	ICM         string `json:"icm"`
	ARM         string `json:"arm"`
}

// PlanParticle is one species of the kernel particle table with its
// registered processes, in registration order.
type PlanParticle struct {
	Name      string   `json:"name"`
	Processes []string `json:"processes"`
}

// PlanCuts is the resolved production-cuts table.
type PlanCuts struct {
	MinKeV    float64            `json:"min_kev"`
	MaxKeV    float64            `json:"max_kev"`
	DefaultMM float64            `json:"default_mm"`
	SpeciesMM map[string]float64 `json:"species_mm"`
}

// PhysicsPlan is the fully resolved physics composition for a configuration:
// what a run with this document would register before the first event.
type PhysicsPlan struct {
	Source           string                `json:"source"`
	EM               string                `json:"em,omitempty"`
	EmOptions        *PlanEmOptions        `json:"em_options,omitempty"`
	RadioactiveDecay *PlanRadioactiveDecay `json:"radioactive_decay,omitempty"`
	Modules          []PlanModule          `json:"modules"`
	Particles        []PlanParticle        `json:"particles"`
	Cuts             PlanCuts              `json:"cuts"`
}

// cutsTableSpecies is the per-species rendering order, matching the order the
// cuts are written into the kernel.
var cutsTableSpecies = []string{
	physics.ParticleGamma,
	physics.ParticleElectron,
	physics.ParticlePositron,
	physics.ParticleMuPlus,
	physics.ParticleMuMinus,
	physics.ParticleNeutron,
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <config.yml>",
		Short: "Show the resolved physics plan",
		Long: `Resolve a configuration into its physics plan and print it.

The plan shows the selected modules, the electromagnetic sub-options, the
radioactive-decay process parameters, every particle species with its
registered processes, and the production-cuts table. No events run and no
artifact is written.`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
	logger := newLogger(config.Verbosity(opts.Verbosity))

	cfg, err := config.Load(configPath)
	if err != nil {
		_ = formatter.Error("config", err.Error(), nil)
		return WrapExitError(ExitFailure, "inspect failed", err)
	}

	setup, err := physics.NewSelector(logger).Select(cfg.ModuleRequests())
	if err != nil {
		_ = formatter.Error("selection", err.Error(), nil)
		return WrapExitError(ExitFailure, "inspect failed", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	plan, err := buildPhysicsPlan(ctx, configPath, cfg, setup, logger)
	if err != nil {
		_ = formatter.Error("composition", err.Error(), nil)
		return WrapExitError(ExitFailure, "inspect failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(plan)
	}
	renderPlanText(formatter.Writer, plan)
	return nil
}

// buildPhysicsPlan drives composition against a throwaway serial kernel and
// reads the registration state back out. The plan therefore reflects what a
// run would actually register, not a parallel reimplementation of the
// composition rules.
func buildPhysicsPlan(ctx context.Context, source string, cfg *config.Config, setup *physics.Setup, logger *slog.Logger) (*PhysicsPlan, error) {
	kern := kernel.New(0, 0, kernel.Gun{}, nil, kernel.WithLogger(logger))
	if err := physics.NewComposer(logger).Compose(ctx, kern, setup, cfg.Physics.IonStepLimits); err != nil {
		return nil, err
	}
	spec := cfg.Physics.Cuts.Spec()
	physics.ApplyCuts(kern, spec, cfg.Physics.Window())

	plan := &PhysicsPlan{
		Source:  source,
		Modules: []PlanModule{},
	}
	for _, m := range setup.Modules() {
		plan.Modules = append(plan.Modules, PlanModule{
			Name:     m.Name(),
			Category: m.Kind.Category().String(),
			Options:  m.Request.Options,
		})
	}

	if setup.EM != nil {
		plan.EM = setup.EM.Name()
		fluo, auger, pixe := kern.EmOptions()
		plan.EmOptions = &PlanEmOptions{Fluorescence: fluo, Auger: auger, PIXE: pixe}
	}
	if rd := kern.RadioactiveDecayConfig(); rd != nil {
		plan.RadioactiveDecay = &PlanRadioactiveDecay{
			ThresholdNs: rd.Threshold.Nanoseconds(),
			ICM:         describeToggle(rd.ICM),
			ARM:         describeToggle(rd.ARM),
		}
	}

	for _, name := range kern.Particles() {
		p, ok := kern.Particle(name)
		if !ok {
			continue
		}
		plan.Particles = append(plan.Particles, PlanParticle{
			Name:      name,
			Processes: p.Processes(),
		})
	}

	minKeV, maxKeV := kern.EnergyRange()
	species := make(map[string]float64, len(cutsTableSpecies))
	for _, name := range cutsTableSpecies {
		species[name] = kern.CutFor(name)
	}
	plan.Cuts = PlanCuts{
		MinKeV:    minKeV,
		MaxKeV:    maxKeV,
		DefaultMM: spec.Default,
		SpeciesMM: species,
	}

	return plan, nil
}

// describeToggle renders an optional boolean for display.
func describeToggle(v *bool) string {
	if v == nil {
		return "kernel default"
	}
	if *v {
		return "true"
	}
	return "false"
}

// renderPlanText prints the plan in sections.
func renderPlanText(w io.Writer, plan *PhysicsPlan) {
	fmt.Fprintf(w, "Physics plan: %s\n", plan.Source)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Modules ===")
	if len(plan.Modules) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, m := range plan.Modules {
			if len(m.Options) == 0 {
				fmt.Fprintf(w, "  %s (%s)\n", m.Name, m.Category)
				continue
			}
			fmt.Fprintf(w, "  %s (%s) %s\n", m.Name, m.Category, formatOptions(m.Options))
		}
	}
	fmt.Fprintln(w)

	if plan.EmOptions != nil {
		fmt.Fprintln(w, "=== Electromagnetic options ===")
		fmt.Fprintf(w, "  fluorescence: %t\n", plan.EmOptions.Fluorescence)
		fmt.Fprintf(w, "  auger:        %t\n", plan.EmOptions.Auger)
		fmt.Fprintf(w, "  pixe:         %t\n", plan.EmOptions.PIXE)
		fmt.Fprintln(w)
	}

	if plan.RadioactiveDecay != nil {
		fmt.Fprintln(w, "=== Radioactive decay ===")
		fmt.Fprintf(w, "  threshold: %d ns\n", plan.RadioactiveDecay.ThresholdNs)
		fmt.Fprintf(w, "  icm:       %s\n", plan.RadioactiveDecay.ICM)
		fmt.Fprintf(w, "  arm:       %s\n", plan.RadioactiveDecay.ARM)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=== Particles ===")
	for _, p := range plan.Particles {
		if len(p.Processes) == 0 {
			fmt.Fprintf(w, "  %s: (no processes)\n", p.Name)
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", p.Name, strings.Join(p.Processes, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Cuts ===")
	fmt.Fprintf(w, "  energy window: %g keV .. %g keV\n", plan.Cuts.MinKeV, plan.Cuts.MaxKeV)
	fmt.Fprintf(w, "  default: %g mm\n", plan.Cuts.DefaultMM)
	for _, name := range cutsTableSpecies {
		fmt.Fprintf(w, "  %-8s %g mm\n", name+":", plan.Cuts.SpeciesMM[name])
	}
}

// formatOptions renders a module option map with sorted keys.
func formatOptions(options map[string]string) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, options[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
