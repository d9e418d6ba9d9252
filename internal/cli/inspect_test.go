package cli

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inspectGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestInspect_FullPlanText(t *testing.T) {
	out, _, err := executeCommand(t, "--verbosity", "silent", "inspect", "testdata/full.yml")
	require.NoError(t, err)

	g := inspectGoldie(t)
	g.Assert(t, "inspect-full-plan", []byte(out))
}

func TestInspect_MinimalPlanText(t *testing.T) {
	out, _, err := executeCommand(t, "--verbosity", "silent", "inspect", "testdata/minimal.yml")
	require.NoError(t, err)

	g := inspectGoldie(t)
	g.Assert(t, "inspect-minimal-plan", []byte(out))
}

func TestInspect_JSON(t *testing.T) {
	out, _, err := executeCommand(t, "--format", "json", "--verbosity", "silent",
		"inspect", "testdata/full.yml")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   PhysicsPlan `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	plan := resp.Data
	assert.Equal(t, "testdata/full.yml", plan.Source)
	assert.Equal(t, "livermore", plan.EM)

	require.NotNil(t, plan.EmOptions)
	assert.True(t, plan.EmOptions.Fluorescence)
	assert.True(t, plan.EmOptions.Auger)
	assert.True(t, plan.EmOptions.PIXE)

	require.NotNil(t, plan.RadioactiveDecay)
	assert.Equal(t, int64(1), plan.RadioactiveDecay.ThresholdNs)
	assert.Equal(t, "true", plan.RadioactiveDecay.ICM)
	assert.Equal(t, "kernel default", plan.RadioactiveDecay.ARM)

	names := make([]string, 0, len(plan.Modules))
	for _, m := range plan.Modules {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"livermore", "decay", "radioactive-decay", "qgsp-bic-hp"}, names)

	require.Len(t, plan.Particles, 19)
	assert.Equal(t, "geantino", plan.Particles[0].Name)
	assert.Equal(t, "Fe56", plan.Particles[18].Name)
	for _, p := range plan.Particles {
		if p.Name == "e-" {
			assert.Equal(t, []string{"Transportation", "livermore", "e-Step"}, p.Processes)
		}
		if p.Name == "Fe56" {
			assert.Equal(t, []string{"Transportation", "ionStep"}, p.Processes)
		}
	}

	assert.Equal(t, 0.25, plan.Cuts.MinKeV)
	assert.Equal(t, 2e6, plan.Cuts.MaxKeV)
	assert.Equal(t, 0.2, plan.Cuts.DefaultMM)
	assert.Equal(t, 1.5, plan.Cuts.SpeciesMM["neutron"])
	assert.Equal(t, 0.05, plan.Cuts.SpeciesMM["gamma"])
}

func TestInspect_EmptyModuleListRendersEmptyArray(t *testing.T) {
	out, _, err := executeCommand(t, "--format", "json", "--verbosity", "silent",
		"inspect", "testdata/minimal.yml")
	require.NoError(t, err)

	// The modules key must decode as an empty array, not null.
	var resp struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.JSONEq(t, "[]", string(resp.Data["modules"]))
}

func TestInspect_ConflictFails(t *testing.T) {
	path := writeConfig(t, `physics:
  modules:
    - name: livermore
    - name: penelope
`)

	_, errOut, err := executeCommand(t, "--verbosity", "silent", "inspect", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, errOut, "Error [selection]:")
}

func TestInspect_MissingConfig(t *testing.T) {
	_, errOut, err := executeCommand(t, "--verbosity", "silent", "inspect", "testdata/absent.yml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, errOut, "Error [config]:")
}
