package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource []byte

var (
	cueOnce   sync.Once
	cueCtx    *cue.Context
	cueSchema cue.Value
)

// compiledSchema compiles the embedded schema once. The document must be
// built in the same context for unification to work.
func compiledSchema() (*cue.Context, cue.Value) {
	cueOnce.Do(func() {
		cueCtx = cuecontext.New()
		cueSchema = cueCtx.CompileBytes(schemaSource).LookupPath(cue.ParsePath("#Config"))
	})
	return cueCtx, cueSchema
}

// ValidationError is one schema violation with its source position.
type ValidationError struct {
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads, validates, and decodes a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	return Parse(path, data)
}

// Parse validates data against the embedded schema and decodes it over the
// defaults. The path only labels positions in error messages.
func Parse(path string, data []byte) (*Config, error) {
	if err := validateDocument(path, data); err != nil {
		return nil, err
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode configuration: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate covers the requirements unification cannot express on an
// incomplete document.
func (c *Config) validate() error {
	for i, m := range c.Physics.Modules {
		if m.Name == "" {
			return fmt.Errorf("physics.modules[%d]: module name is required", i)
		}
	}
	if w := c.Physics.EnergyRangeKeV; w.Max <= w.Min {
		return fmt.Errorf("physics.energy_range_kev: max (%g) must exceed min (%g)", w.Max, w.Min)
	}
	return nil
}

// validateDocument unifies the YAML document with the schema definition.
func validateDocument(path string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	ctx, schema := compiledSchema()
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return fmt.Errorf("parse configuration: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return formatCUEError(err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError surfaces the first CUE error with its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &ValidationError{Message: first.Error(), Pos: positions[0]}
	}
	return &ValidationError{Message: first.Error()}
}
