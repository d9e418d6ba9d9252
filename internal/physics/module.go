package physics

import "fmt"

// Category groups module kinds by the role they play in a physics setup.
type Category int

const (
	// CategoryElectromagnetic covers the mutually exclusive EM process sets.
	CategoryElectromagnetic Category = iota + 1
	// CategoryDecay covers ordinary particle decay.
	CategoryDecay
	// CategoryRadioactiveDecay covers nuclear de-excitation and decay chains.
	CategoryRadioactiveDecay
	// CategoryHadronic covers hadronic interaction process sets.
	CategoryHadronic
)

// String returns the lowercase category name used in logs and plans.
func (c Category) String() string {
	switch c {
	case CategoryElectromagnetic:
		return "electromagnetic"
	case CategoryDecay:
		return "decay"
	case CategoryRadioactiveDecay:
		return "radioactive-decay"
	case CategoryHadronic:
		return "hadronic"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Kind identifies one member of the closed set of known physics modules.
//
// The set is fixed at compile time: configuration selects kinds by name but
// cannot introduce new ones. KindByName is the only entry point from the
// string domain.
type Kind int

const (
	// KindInvalid is the zero value; it never appears in a valid setup.
	KindInvalid Kind = iota
	KindEmLivermore
	KindEmPenelope
	KindEmStandardOpt3
	KindEmStandardOpt4
	KindDecay
	KindRadioactiveDecay
	KindHadronQGSPBicHP
	KindIonBinaryCascade
	KindHadronElasticHP
	KindNeutronTrackingCut
	KindEmExtra
)

// Particle species names as the kernel knows them.
const (
	ParticleGamma      = "gamma"
	ParticleElectron   = "e-"
	ParticlePositron   = "e+"
	ParticleMuMinus    = "mu-"
	ParticleMuPlus     = "mu+"
	ParticleTauMinus   = "tau-"
	ParticleTauPlus    = "tau+"
	ParticlePiPlus     = "pi+"
	ParticlePiMinus    = "pi-"
	ParticleKaonPlus   = "kaon+"
	ParticleKaonMinus  = "kaon-"
	ParticleProton     = "proton"
	ParticleNeutron    = "neutron"
	ParticleAlpha      = "alpha"
	ParticleDeuteron   = "deuteron"
	ParticleTriton     = "triton"
	ParticleGenericIon = "GenericIon"
	ParticleGeantino   = "geantino"
)

// kindInfo is the static registry entry for one module kind.
type kindInfo struct {
	name     string
	category Category

	// particles lists the species this kind constructs in the kernel
	// particle table. Step limiters and cuts only ever see species that
	// some selected module constructed.
	particles []string
}

var kindTable = map[Kind]kindInfo{
	KindEmLivermore: {
		name:      "livermore",
		category:  CategoryElectromagnetic,
		particles: emParticles,
	},
	KindEmPenelope: {
		name:      "penelope",
		category:  CategoryElectromagnetic,
		particles: emParticles,
	},
	KindEmStandardOpt3: {
		name:      "standard-opt3",
		category:  CategoryElectromagnetic,
		particles: emParticles,
	},
	KindEmStandardOpt4: {
		name:      "standard-opt4",
		category:  CategoryElectromagnetic,
		particles: emParticles,
	},
	KindDecay: {
		name:     "decay",
		category: CategoryDecay,
		particles: []string{
			ParticleTauMinus, ParticleTauPlus,
			ParticlePiPlus, ParticlePiMinus,
			ParticleKaonPlus, ParticleKaonMinus,
		},
	},
	KindRadioactiveDecay: {
		name:     "radioactive-decay",
		category: CategoryRadioactiveDecay,
		particles: []string{
			ParticleGenericIon, ParticleAlpha,
			ParticleDeuteron, ParticleTriton,
		},
	},
	KindHadronQGSPBicHP: {
		name:     "qgsp-bic-hp",
		category: CategoryHadronic,
		particles: []string{
			ParticleProton, ParticleNeutron,
			ParticlePiPlus, ParticlePiMinus,
		},
	},
	KindIonBinaryCascade: {
		name:     "ion-binary-cascade",
		category: CategoryHadronic,
		particles: []string{
			ParticleGenericIon, ParticleAlpha,
			ParticleDeuteron, ParticleTriton,
		},
	},
	KindHadronElasticHP: {
		name:     "elastic-hp",
		category: CategoryHadronic,
		particles: []string{
			ParticleProton, ParticleNeutron, ParticleAlpha,
		},
	},
	KindNeutronTrackingCut: {
		name:      "neutron-tracking-cut",
		category:  CategoryHadronic,
		particles: []string{ParticleNeutron},
	},
	KindEmExtra: {
		name:      "em-extra",
		category:  CategoryHadronic,
		particles: []string{ParticleGamma},
	},
}

// emParticles is shared by the four EM kinds. These are the only kinds that
// construct the charged leptons, so lepton step limiters exist exactly when
// an EM module was selected.
var emParticles = []string{
	ParticleGamma,
	ParticleElectron, ParticlePositron,
	ParticleMuMinus, ParticleMuPlus,
}

// emPriority is the fixed resolution order for electromagnetic candidates.
// The first kind in this list that appears in the request set claims the
// single EM slot.
var emPriority = []Kind{
	KindEmLivermore,
	KindEmPenelope,
	KindEmStandardOpt3,
	KindEmStandardOpt4,
}

// Kinds returns all known module kinds in registry order.
func Kinds() []Kind {
	return []Kind{
		KindEmLivermore, KindEmPenelope, KindEmStandardOpt3, KindEmStandardOpt4,
		KindDecay, KindRadioactiveDecay,
		KindHadronQGSPBicHP, KindIonBinaryCascade, KindHadronElasticHP,
		KindNeutronTrackingCut, KindEmExtra,
	}
}

// KindByName resolves a configuration name to a module kind.
func KindByName(name string) (Kind, bool) {
	for k, info := range kindTable {
		if info.name == name {
			return k, true
		}
	}
	return KindInvalid, false
}

// Name returns the configuration name of the kind, or "invalid".
func (k Kind) Name() string {
	if info, ok := kindTable[k]; ok {
		return info.name
	}
	return "invalid"
}

// Category returns the category of the kind.
func (k Kind) Category() Category {
	return kindTable[k].category
}

// Particles returns the species this kind constructs. The slice is shared;
// callers must not modify it.
func (k Kind) Particles() []string {
	return kindTable[k].particles
}

// ModuleRequest is one entry of the configured physics module list: a module
// name plus free-form string options. Requests are immutable inputs; option
// interpretation happens at composition time.
type ModuleRequest struct {
	Name    string
	Options map[string]string
}

// Option returns the value for key, or "" when the key is absent.
func (r ModuleRequest) Option(key string) string {
	return r.Options[key]
}

// Module pairs a resolved kind with the request that selected it. The
// request carries the option strings consumed during composition.
type Module struct {
	Kind    Kind
	Request ModuleRequest
}

// Name returns the canonical kind name.
func (m *Module) Name() string { return m.Kind.Name() }
