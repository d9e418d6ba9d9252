package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a configuration document plus
// the outcome it must produce. A scenario either expects the resolve
// pipeline to fail (ExpectError) or asserts on the composed kernel state.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are stored
	// under this name.
	Name string `yaml:"name"`

	// Description explains what this scenario locks down.
	Description string `yaml:"description"`

	// Config is the inline configuration document the scenario resolves.
	Config string `yaml:"config"`

	// ExpectError, when set, requires configuration loading, selection or
	// composition to fail with an error containing this substring.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the composed kernel state and captured
	// warnings. Required unless ExpectError is set.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates one aspect of a composition outcome.
type Assertion struct {
	// Type selects the check:
	//   - "modules": selected modules equal Modules, in order
	//   - "has_process": Particle carries the process Label
	//   - "process_order": Processes appear on Particle in this order
	//   - "particle_count": the particle table holds exactly Count species
	//   - "cut": the production cut for Particle is MM millimeters
	//   - "warning": some captured warning contains Contains
	Type string `yaml:"type"`

	// Particle is the species name (has_process, process_order, cut).
	Particle string `yaml:"particle,omitempty"`

	// Process is the expected process label (has_process).
	Process string `yaml:"process,omitempty"`

	// Processes is the expected label order (process_order). Labels must
	// appear in this order; other labels may sit between them.
	Processes []string `yaml:"processes,omitempty"`

	// Modules is the expected module list (modules).
	Modules []string `yaml:"modules,omitempty"`

	// Contains is the expected warning substring (warning).
	Contains string `yaml:"contains,omitempty"`

	// Count is the expected species count (particle_count).
	Count int `yaml:"count,omitempty"`

	// MM is the expected cut in millimeters (cut).
	MM float64 `yaml:"mm,omitempty"`
}

// Assertion type constants.
const (
	AssertModules       = "modules"
	AssertHasProcess    = "has_process"
	AssertProcessOrder  = "process_order"
	AssertParticleCount = "particle_count"
	AssertCut           = "cut"
	AssertWarning       = "warning"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields,
// missing required fields, and malformed assertions are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// assertion carries the fields its type needs.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Config == "" {
		return fmt.Errorf("config is required")
	}

	if s.ExpectError != "" {
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with expect_error")
		}
		return nil
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertModules:
		// An empty Modules list is valid; it asserts that nothing was
		// selected.
	case AssertHasProcess:
		if a.Particle == "" {
			return fmt.Errorf("assertions[%d]: particle is required for has_process", index)
		}
		if a.Process == "" {
			return fmt.Errorf("assertions[%d]: process is required for has_process", index)
		}
	case AssertProcessOrder:
		if a.Particle == "" {
			return fmt.Errorf("assertions[%d]: particle is required for process_order", index)
		}
		if len(a.Processes) == 0 {
			return fmt.Errorf("assertions[%d]: processes list is required for process_order", index)
		}
	case AssertParticleCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for particle_count", index)
		}
	case AssertCut:
		if a.Particle == "" {
			return fmt.Errorf("assertions[%d]: particle is required for cut", index)
		}
		if a.MM <= 0 {
			return fmt.Errorf("assertions[%d]: mm must be positive for cut", index)
		}
	case AssertWarning:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for warning", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
