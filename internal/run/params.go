package run

import (
	"fmt"
	"time"

	"github.com/tmadas/beamline/internal/config"
)

// Parameters are the resolved execution parameters of one run. Immutable
// once the lifecycle leaves Configuring.
type Parameters struct {
	EventCount     int64
	DesiredEntries int64
	TimeLimit      time.Duration
	ThreadCount    int
	Seed           int64
	OutputPath     string
	GeometryPath   string
}

// ParametersFrom extracts the run parameters from a loaded configuration.
func ParametersFrom(cfg *config.Config) Parameters {
	return Parameters{
		EventCount:     cfg.Run.Events,
		DesiredEntries: cfg.Run.DesiredEntries,
		TimeLimit:      cfg.Run.TimeLimit.Std(),
		ThreadCount:    cfg.Run.Threads,
		Seed:           cfg.Run.Seed,
		OutputPath:     cfg.Run.Output,
		GeometryPath:   cfg.Geometry.File,
	}
}

// Interactive reports whether the run has no fixed event bound.
func (p Parameters) Interactive() bool {
	return p.EventCount == 0
}

// Validate rejects parameter combinations that cannot start a run. The
// schema already bounds file-sourced values; this is the backstop for
// flag overrides.
func (p Parameters) Validate() error {
	if p.EventCount < 0 {
		return &ParameterError{Field: "events", Message: fmt.Sprintf("negative event count %d", p.EventCount)}
	}
	if p.ThreadCount < 0 {
		return &ParameterError{Field: "threads", Message: fmt.Sprintf("negative thread count %d", p.ThreadCount)}
	}
	if p.DesiredEntries < 0 {
		return &ParameterError{Field: "desired_entries", Message: fmt.Sprintf("negative entry count %d", p.DesiredEntries)}
	}
	if p.TimeLimit < 0 {
		return &ParameterError{Field: "time_limit", Message: fmt.Sprintf("negative time limit %s", p.TimeLimit)}
	}
	if p.OutputPath == "" {
		return &ParameterError{Field: "output", Message: "output path is required"}
	}
	if p.GeometryPath == "" {
		return &ParameterError{Field: "geometry", Message: "geometry file is required"}
	}
	return nil
}

// ParameterError reports an invalid run parameter value.
type ParameterError struct {
	Field   string
	Message string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid run parameter %s: %s", e.Field, e.Message)
}

// Overrides carries command-line values that replace file-sourced
// configuration. Nil fields leave the file value in place.
type Overrides struct {
	Events         *int64
	Threads        *int
	Seed           *int64
	DesiredEntries *int64
	TimeLimit      *time.Duration
	OutputPath     *string
	GeometryPath   *string
}

// Apply writes the set overrides into cfg.
func (o Overrides) Apply(cfg *config.Config) {
	if o.Events != nil {
		cfg.Run.Events = *o.Events
	}
	if o.Threads != nil {
		cfg.Run.Threads = *o.Threads
	}
	if o.Seed != nil {
		cfg.Run.Seed = *o.Seed
	}
	if o.DesiredEntries != nil {
		cfg.Run.DesiredEntries = *o.DesiredEntries
	}
	if o.TimeLimit != nil {
		cfg.Run.TimeLimit = config.Duration(*o.TimeLimit)
	}
	if o.OutputPath != nil {
		cfg.Run.Output = *o.OutputPath
	}
	if o.GeometryPath != nil {
		cfg.Geometry.File = *o.GeometryPath
	}
}
