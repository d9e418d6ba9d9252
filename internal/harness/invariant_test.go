package harness

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmadas/beamline/internal/kernel"
)

func quietKernel() *kernel.Kernel {
	return kernel.New(0, 0, kernel.Gun{}, nil,
		kernel.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestCheckComposition_Clean(t *testing.T) {
	kern := quietKernel()
	kern.AddTransportation()
	kern.ConstructParticles([]string{"e-", "proton"})
	kern.RegisterProcess("e-", "livermore")
	kern.RegisterProcess("proton", "elastic-hp")
	kern.EnsureIon(26, 56)
	kern.RegisterProcess("Fe56", "ionStep")

	assert.Empty(t, CheckComposition(kern))
}

func TestCheckComposition_MissingTransportation(t *testing.T) {
	kern := quietKernel()
	kern.ConstructParticles([]string{"e-"})
	kern.RegisterProcess("e-", "livermore")

	problems := CheckComposition(kern)
	require.Len(t, problems, 2)
	assert.Contains(t, problems[0], "geantino: transportation is not the first process")
	assert.Contains(t, problems[1], "e-: transportation is not the first process")
}

func TestCheckComposition_DuplicateProcess(t *testing.T) {
	kern := quietKernel()
	kern.AddTransportation()
	kern.ConstructParticles([]string{"pi+"})
	kern.RegisterProcess("pi+", "decay")
	kern.RegisterProcess("pi+", "decay")

	problems := CheckComposition(kern)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], `pi+: process "decay" registered twice`)
}
