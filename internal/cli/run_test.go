package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmadas/beamline/internal/meta"
	"github.com/tmadas/beamline/internal/physics"
	"github.com/tmadas/beamline/internal/store"
)

const testGeometry = `<?xml version="1.0"?>
<gdml xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
      xsi:noNamespaceSchemaLocation="http://service-spi.web.cern.ch/service-spi/app/releases/GDML/schema/gdml.xsd"
      version="3.1.6">
  <solids>
    <box name="world" x="200" y="200" z="200" lunit="mm"/>
  </solids>
  <structure>
    <volume name="World"><solidref ref="world"/></volume>
  </structure>
  <setup name="Default" version="1.0"><world ref="World"/></setup>
</gdml>
`

// runFixture holds the file layout one run command execution touches.
type runFixture struct {
	dir      string
	config   string
	output   string
	geometry string
}

func newRunFixture(t *testing.T, events int64) runFixture {
	t.Helper()
	dir := t.TempDir()
	f := runFixture{
		dir:      dir,
		config:   filepath.Join(dir, "run.yml"),
		output:   filepath.Join(dir, "run.db"),
		geometry: filepath.Join(dir, "setup.gdml"),
	}
	require.NoError(t, os.WriteFile(f.geometry, []byte(testGeometry), 0o644))

	doc := fmt.Sprintf(`title: cli run test
run:
  events: %d
  seed: 99
  output: %s
geometry:
  file: %s
physics:
  modules:
    - name: standard-opt4
`, events, f.output, f.geometry)
	require.NoError(t, os.WriteFile(f.config, []byte(doc), 0o644))
	return f
}

// soleRun opens the artifact and returns its single run row.
func soleRun(t *testing.T, path string) store.RunRecord {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	return runs[0]
}

func TestRun_Batch(t *testing.T) {
	f := newRunFixture(t, 50)

	out, _, err := executeCommand(t, "--verbosity", "silent", "run", f.config)
	require.NoError(t, err)

	rec := soleRun(t, f.output)
	assert.Equal(t, "completed", rec.Status)
	assert.Equal(t, int64(50), rec.RequestedEvents)
	assert.Equal(t, int64(50), rec.ProcessedEvents)
	assert.Equal(t, int64(99), rec.Seed)
	assert.Equal(t, "cli run test", rec.Tag)

	assert.Contains(t, out, "Run summary")
	assert.Contains(t, out, fmt.Sprintf("Generated file: %s", f.output))
}

func TestRun_FlagOverrides(t *testing.T) {
	f := newRunFixture(t, 50)

	_, _, err := executeCommand(t, "--verbosity", "silent", "run", f.config,
		"--events", "10", "--seed", "555")
	require.NoError(t, err)

	rec := soleRun(t, f.output)
	assert.Equal(t, int64(10), rec.RequestedEvents)
	assert.Equal(t, int64(10), rec.ProcessedEvents)
	assert.Equal(t, int64(555), rec.Seed)
}

func TestRun_OutputFlagRedirectsArtifact(t *testing.T) {
	f := newRunFixture(t, 5)
	alt := filepath.Join(f.dir, "alt.db")

	_, _, err := executeCommand(t, "--verbosity", "silent", "run", f.config,
		"--output", alt)
	require.NoError(t, err)

	assert.NoFileExists(t, f.output)
	rec := soleRun(t, alt)
	assert.Equal(t, int64(5), rec.ProcessedEvents)
}

func TestRun_EntriesFlagStopsBeam(t *testing.T) {
	f := newRunFixture(t, 1000)

	_, _, err := executeCommand(t, "--verbosity", "silent", "run", f.config,
		"--entries", "25")
	require.NoError(t, err)

	// Serial events store one entry each, so the stop lands exactly on the
	// requested count.
	rec := soleRun(t, f.output)
	assert.Equal(t, "completed", rec.Status)
	assert.Equal(t, int64(25), rec.ProcessedEvents)
	assert.Equal(t, int64(25), rec.DesiredEntries)
}

func TestRun_TimeLimitFlagRecorded(t *testing.T) {
	f := newRunFixture(t, 3)

	_, _, err := executeCommand(t, "--verbosity", "silent", "run", f.config,
		"--time-limit", "1h")
	require.NoError(t, err)

	rec := soleRun(t, f.output)
	assert.Equal(t, time.Hour, rec.TimeLimit)
	assert.Equal(t, int64(3), rec.ProcessedEvents)
	assert.Equal(t, "completed", rec.Status)
}

func TestRun_InteractiveInput(t *testing.T) {
	f := newRunFixture(t, 0)
	script := filepath.Join(f.dir, "session.txt")
	require.NoError(t, os.WriteFile(script, []byte("/run/beamOn 3\nexit\n"), 0o644))

	out, _, err := executeCommand(t, "--verbosity", "silent", "run", f.config,
		"--interactive-input", script)
	require.NoError(t, err)

	assert.Contains(t, out, "beamline> ")

	rec := soleRun(t, f.output)
	assert.Equal(t, "completed", rec.Status)
	assert.Equal(t, int64(meta.MaxPrimaries), rec.RequestedEvents)
	assert.Equal(t, int64(3), rec.ProcessedEvents)
}

func TestRun_MissingInteractiveInput(t *testing.T) {
	f := newRunFixture(t, 0)

	_, _, err := executeCommand(t, "--verbosity", "silent", "run", f.config,
		"--interactive-input", filepath.Join(f.dir, "absent.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "open interactive input")
	assert.NoFileExists(t, f.output)
}

func TestRun_MissingConfig(t *testing.T) {
	_, _, err := executeCommand(t, "--verbosity", "silent", "run",
		filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "run failed")
}

func TestRun_ConflictingModules(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "run.db")
	configPath := filepath.Join(dir, "run.yml")
	doc := fmt.Sprintf(`run:
  events: 5
  output: %s
geometry:
  file: %s
physics:
  modules:
    - name: livermore
    - name: penelope
`, output, filepath.Join(dir, "setup.gdml"))
	require.NoError(t, os.WriteFile(configPath, []byte(doc), 0o644))

	_, _, err := executeCommand(t, "--verbosity", "silent", "run", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var conflict *physics.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.NoFileExists(t, output)
}

func TestRun_InvalidOverrideRejected(t *testing.T) {
	f := newRunFixture(t, 50)

	_, _, err := executeCommand(t, "--verbosity", "silent", "run", f.config,
		"--events=-5")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid run parameter events")
	assert.NoFileExists(t, f.output)
}
