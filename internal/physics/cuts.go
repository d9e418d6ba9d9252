package physics

// DefaultCutMillimeter is the production cut length used for any species the
// configuration leaves unset.
const DefaultCutMillimeter = 0.1

// EnergyRange bounds the production-cuts table, in keV. The window applies
// globally, before any per-species cut value.
type EnergyRange struct {
	MinKeV float64
	MaxKeV float64
}

// CutSpec holds production cut lengths in millimeters. Muon covers both
// charge states. Values are applied verbatim; nothing validates them against
// the energy window, the kernel owns clamping or rejecting.
type CutSpec struct {
	Default  float64
	Gamma    float64
	Electron float64
	Positron float64
	Muon     float64
	Neutron  float64
}

// DefaultCutSpec returns a CutSpec with every length set to
// DefaultCutMillimeter.
func DefaultCutSpec() CutSpec {
	return CutSpec{
		Default:  DefaultCutMillimeter,
		Gamma:    DefaultCutMillimeter,
		Electron: DefaultCutMillimeter,
		Positron: DefaultCutMillimeter,
		Muon:     DefaultCutMillimeter,
		Neutron:  DefaultCutMillimeter,
	}
}

// CutsTable is the kernel's production-cuts surface.
type CutsTable interface {
	SetEnergyRange(minKeV, maxKeV float64)
	SetDefaultCut(mm float64)
	SetCut(particle string, mm float64)
}

// ApplyCuts writes the cut specification into the kernel: energy window
// first, then the default cut for all species, then the per-species
// overrides in fixed order (gamma, e-, e+, mu+, mu-, neutron). A nil table
// skips everything.
func ApplyCuts(table CutsTable, spec CutSpec, window EnergyRange) {
	if table == nil {
		return
	}
	table.SetEnergyRange(window.MinKeV, window.MaxKeV)
	table.SetDefaultCut(spec.Default)
	table.SetCut(ParticleGamma, spec.Gamma)
	table.SetCut(ParticleElectron, spec.Electron)
	table.SetCut(ParticlePositron, spec.Positron)
	table.SetCut(ParticleMuPlus, spec.Muon)
	table.SetCut(ParticleMuMinus, spec.Muon)
	table.SetCut(ParticleNeutron, spec.Neutron)
}
