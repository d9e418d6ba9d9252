// Package config loads the YAML run configuration: explicit defaults, strict
// decoding, and validation against an embedded CUE schema. Everything the
// rest of the system consumes (module requests, cuts, run parameters) is
// derived from the typed Config this package produces.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tmadas/beamline/internal/physics"
)

// Verbosity names the logging levels accepted by the configuration.
type Verbosity string

const (
	VerbositySilent    Verbosity = "silent"
	VerbosityEssential Verbosity = "essential"
	VerbosityInfo      Verbosity = "info"
	VerbosityVerbose   Verbosity = "verbose"
	VerbosityDebug     Verbosity = "debug"
)

// Level maps the verbosity to a slog threshold. Silent returns a level above
// every record; callers that want true silence use a discard handler.
func (v Verbosity) Level() slog.Level {
	switch v {
	case VerbositySilent:
		return slog.LevelError + 4
	case VerbosityEssential:
		return slog.LevelWarn
	case VerbosityVerbose, VerbosityDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Duration decodes Go duration strings from YAML ("90m", "1h30m"). A bare 0
// means no limit.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// MarshalJSON keeps the digest form readable and stable.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config is the typed run configuration.
type Config struct {
	Title     string          `yaml:"title" json:"title"`
	Run       RunConfig       `yaml:"run" json:"run"`
	Geometry  GeometryConfig  `yaml:"geometry" json:"geometry"`
	Generator GeneratorConfig `yaml:"generator" json:"generator"`
	Physics   PhysicsConfig   `yaml:"physics" json:"physics"`
	Verbosity Verbosity       `yaml:"verbosity" json:"verbosity"`
}

// RunConfig carries the run parameters. Events == 0 selects the interactive
// path; Threads == 0 selects the serial kernel.
type RunConfig struct {
	Events         int64    `yaml:"events" json:"events"`
	Threads        int      `yaml:"threads" json:"threads"`
	Seed           int64    `yaml:"seed" json:"seed"`
	DesiredEntries int64    `yaml:"desired_entries" json:"desired_entries"`
	TimeLimit      Duration `yaml:"time_limit" json:"time_limit"`
	Output         string   `yaml:"output" json:"output"`
}

type GeometryConfig struct {
	File string `yaml:"file" json:"file"`
}

type GeneratorConfig struct {
	Particle string `yaml:"particle" json:"particle"`
	Count    int    `yaml:"count" json:"count"`
}

// PhysicsConfig mirrors the physics section of the document.
type PhysicsConfig struct {
	Modules        []ModuleConfig    `yaml:"modules" json:"modules"`
	Cuts           CutsConfig        `yaml:"cuts" json:"cuts"`
	EnergyRangeKeV EnergyRangeConfig `yaml:"energy_range_kev" json:"energy_range_kev"`
	IonStepLimits  []string          `yaml:"ion_step_limits" json:"ion_step_limits"`
}

// ModuleConfig is one requested physics module with its option strings.
type ModuleConfig struct {
	Name    string            `yaml:"name" json:"name"`
	Options map[string]string `yaml:"options" json:"options,omitempty"`
}

// CutsConfig holds production cut lengths in millimeters. A zero per-species
// value means "use the default cut".
type CutsConfig struct {
	DefaultMM  float64 `yaml:"default_mm" json:"default_mm"`
	GammaMM    float64 `yaml:"gamma_mm" json:"gamma_mm"`
	ElectronMM float64 `yaml:"electron_mm" json:"electron_mm"`
	PositronMM float64 `yaml:"positron_mm" json:"positron_mm"`
	MuonMM     float64 `yaml:"muon_mm" json:"muon_mm"`
	NeutronMM  float64 `yaml:"neutron_mm" json:"neutron_mm"`
}

type EnergyRangeConfig struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Default returns the configuration the document is decoded over. Every
// field the document omits keeps these values.
func Default() Config {
	return Config{
		Run: RunConfig{
			Output: "run.db",
		},
		Generator: GeneratorConfig{
			Particle: physics.ParticleGeantino,
			Count:    1,
		},
		Physics: PhysicsConfig{
			Cuts: CutsConfig{
				DefaultMM: physics.DefaultCutMillimeter,
			},
			EnergyRangeKeV: EnergyRangeConfig{
				Min: 0.1,
				Max: 1e6,
			},
		},
		Verbosity: VerbosityInfo,
	}
}

// ModuleRequests converts the configured module list into the selector's
// input form, preserving request order.
func (c *Config) ModuleRequests() []physics.ModuleRequest {
	reqs := make([]physics.ModuleRequest, 0, len(c.Physics.Modules))
	for _, m := range c.Physics.Modules {
		reqs = append(reqs, physics.ModuleRequest{Name: m.Name, Options: m.Options})
	}
	return reqs
}

// Spec resolves the cut configuration: the default length fills every
// species the document left at zero.
func (c CutsConfig) Spec() physics.CutSpec {
	def := c.DefaultMM
	if def <= 0 {
		def = physics.DefaultCutMillimeter
	}
	pick := func(mm float64) float64 {
		if mm > 0 {
			return mm
		}
		return def
	}
	return physics.CutSpec{
		Default:  def,
		Gamma:    pick(c.GammaMM),
		Electron: pick(c.ElectronMM),
		Positron: pick(c.PositronMM),
		Muon:     pick(c.MuonMM),
		Neutron:  pick(c.NeutronMM),
	}
}

// Window returns the production-cuts energy window in keV.
func (p PhysicsConfig) Window() physics.EnergyRange {
	return physics.EnergyRange{MinKeV: p.EnergyRangeKeV.Min, MaxKeV: p.EnergyRangeKeV.Max}
}
