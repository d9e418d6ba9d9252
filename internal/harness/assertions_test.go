package harness

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmadas/beamline/internal/kernel"
)

// composedKernel builds a small kernel by hand: e- with an EM process and
// its step limiter, proton with a hadronic process, explicit cuts.
func composedKernel() *kernel.Kernel {
	kern := kernel.New(0, 0, kernel.Gun{}, nil,
		kernel.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	kern.AddTransportation()
	kern.ConstructParticles([]string{"e-", "proton"})
	kern.RegisterProcess("e-", "livermore")
	kern.RegisterProcess("e-", "e-Step")
	kern.RegisterProcess("proton", "elastic-hp")
	kern.SetDefaultCut(0.1)
	kern.SetCut("e-", 0.3)
	return kern
}

func TestAssertModules(t *testing.T) {
	modules := []string{"livermore", "elastic-hp"}

	assert.NoError(t, assertModules(modules, Assertion{Modules: []string{"livermore", "elastic-hp"}}))
	assert.NoError(t, assertModules([]string{}, Assertion{Modules: []string{}}))

	err := assertModules(modules, Assertion{Modules: []string{"elastic-hp", "livermore"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[elastic-hp livermore]")
	assert.Contains(t, err.Error(), "[livermore elastic-hp]")

	assert.Error(t, assertModules(modules, Assertion{Modules: []string{"livermore"}}))
}

func TestAssertHasProcess(t *testing.T) {
	kern := composedKernel()

	assert.NoError(t, assertHasProcess(kern, Assertion{Particle: "e-", Process: "livermore"}))
	assert.NoError(t, assertHasProcess(kern, Assertion{Particle: "proton", Process: "Transportation"}))

	err := assertHasProcess(kern, Assertion{Particle: "proton", Process: "livermore"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `process "livermore" on proton`)

	err = assertHasProcess(kern, Assertion{Particle: "neutron", Process: "elastic-hp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `species "neutron"`)
}

func TestAssertProcessOrder(t *testing.T) {
	kern := composedKernel()

	assert.NoError(t, assertProcessOrder(kern, Assertion{
		Particle:  "e-",
		Processes: []string{"Transportation", "livermore", "e-Step"},
	}))

	// Intervening labels are allowed.
	assert.NoError(t, assertProcessOrder(kern, Assertion{
		Particle:  "e-",
		Processes: []string{"Transportation", "e-Step"},
	}))

	err := assertProcessOrder(kern, Assertion{
		Particle:  "e-",
		Processes: []string{"e-Step", "Transportation"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched 1 of 2")
}

func TestAssertParticleCount(t *testing.T) {
	kern := composedKernel()

	// geantino, e-, proton.
	assert.NoError(t, assertParticleCount(kern, Assertion{Count: 3}))

	err := assertParticleCount(kern, Assertion{Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 species")
}

func TestAssertCut(t *testing.T) {
	kern := composedKernel()

	assert.NoError(t, assertCut(kern, Assertion{Particle: "e-", MM: 0.3}))
	assert.NoError(t, assertCut(kern, Assertion{Particle: "proton", MM: 0.1}))

	err := assertCut(kern, Assertion{Particle: "e-", MM: 0.1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cut 0.3 mm")
}

func TestAssertWarning(t *testing.T) {
	warnings := []string{"no electromagnetic physics module requested"}

	assert.NoError(t, assertWarning(warnings, Assertion{Contains: "no electromagnetic"}))

	err := assertWarning(warnings, Assertion{Contains: "option=ICM"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `a warning containing "option=ICM"`)
}

func TestAssertionErrorMessage(t *testing.T) {
	err := &AssertionError{
		Type:     AssertCut,
		Expected: "cut 0.2 mm for gamma",
		Actual:   "cut 0.1 mm",
	}
	assert.Equal(t, "assertion cut failed: expected cut 0.2 mm for gamma, actual cut 0.1 mm", err.Error())
}
