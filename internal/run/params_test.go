package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmadas/beamline/internal/config"
)

func validParameters() Parameters {
	return Parameters{
		EventCount:   100,
		ThreadCount:  0,
		Seed:         7,
		OutputPath:   "run.db",
		GeometryPath: "setup.gdml",
	}
}

func TestParametersFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Events = 250
	cfg.Run.Threads = 4
	cfg.Run.Seed = 99
	cfg.Run.DesiredEntries = 50
	cfg.Run.TimeLimit = config.Duration(time.Hour)
	cfg.Run.Output = "out/run.db"
	cfg.Geometry.File = "chamber.gdml"

	p := ParametersFrom(&cfg)

	assert.Equal(t, int64(250), p.EventCount)
	assert.Equal(t, 4, p.ThreadCount)
	assert.Equal(t, int64(99), p.Seed)
	assert.Equal(t, int64(50), p.DesiredEntries)
	assert.Equal(t, time.Hour, p.TimeLimit)
	assert.Equal(t, "out/run.db", p.OutputPath)
	assert.Equal(t, "chamber.gdml", p.GeometryPath)
}

func TestParameters_Interactive(t *testing.T) {
	p := validParameters()
	assert.False(t, p.Interactive())

	p.EventCount = 0
	assert.True(t, p.Interactive())
}

func TestParameters_Validate(t *testing.T) {
	assert.NoError(t, validParameters().Validate())
}

func TestParameters_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Parameters)
		field  string
	}{
		{"negative events", func(p *Parameters) { p.EventCount = -1 }, "events"},
		{"negative threads", func(p *Parameters) { p.ThreadCount = -2 }, "threads"},
		{"negative entries", func(p *Parameters) { p.DesiredEntries = -3 }, "desired_entries"},
		{"negative time limit", func(p *Parameters) { p.TimeLimit = -time.Second }, "time_limit"},
		{"empty output", func(p *Parameters) { p.OutputPath = "" }, "output"},
		{"empty geometry", func(p *Parameters) { p.GeometryPath = "" }, "geometry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParameters()
			tt.mutate(&p)

			err := p.Validate()
			require.Error(t, err)

			var perr *ParameterError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestOverrides_Apply(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Events = 10
	cfg.Run.Output = "file.db"
	cfg.Geometry.File = "a.gdml"

	events := int64(500)
	threads := 8
	limit := 30 * time.Minute
	geom := "b.gdml"
	ov := Overrides{
		Events:       &events,
		Threads:      &threads,
		TimeLimit:    &limit,
		GeometryPath: &geom,
	}
	ov.Apply(&cfg)

	assert.Equal(t, int64(500), cfg.Run.Events)
	assert.Equal(t, 8, cfg.Run.Threads)
	assert.Equal(t, config.Duration(30*time.Minute), cfg.Run.TimeLimit)
	assert.Equal(t, "b.gdml", cfg.Geometry.File)
	// Unset overrides leave file values alone.
	assert.Equal(t, "file.db", cfg.Run.Output)
	assert.Equal(t, int64(0), cfg.Run.Seed)
}

func TestParameterError_Message(t *testing.T) {
	err := &ParameterError{Field: "events", Message: "negative event count -5"}
	assert.Equal(t, "invalid run parameter events: negative event count -5", err.Error())
}
