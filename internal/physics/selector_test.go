package physics

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSelector returns a Selector whose log output is captured in the
// returned buffer at debug level.
func newTestSelector(t *testing.T) (*Selector, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewSelector(logger), buf
}

func warningCount(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), "level=WARN")
}

func requests(names ...string) []ModuleRequest {
	out := make([]ModuleRequest, 0, len(names))
	for _, n := range names {
		out = append(out, ModuleRequest{Name: n})
	}
	return out
}

func TestSelector_SingleEMClaimsSlot(t *testing.T) {
	for _, name := range []string{"livermore", "penelope", "standard-opt3", "standard-opt4"} {
		sel, _ := newTestSelector(t)
		setup, err := sel.Select(requests(name))
		require.NoError(t, err, "single EM request %q must succeed", name)
		require.NotNil(t, setup.EM)
		assert.Equal(t, name, setup.EMName())
	}
}

func TestSelector_TwoEMModules_ConflictError(t *testing.T) {
	sel, _ := newTestSelector(t)

	setup, err := sel.Select(requests("livermore", "penelope"))
	require.Error(t, err)
	assert.Nil(t, setup, "no setup may be produced on conflict")

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "livermore", conflict.First)
	assert.Equal(t, "penelope", conflict.Second)
}

func TestSelector_ConflictNamesFollowPriorityNotRequestOrder(t *testing.T) {
	sel, _ := newTestSelector(t)

	// standard-opt4 is requested first but livermore outranks it.
	_, err := sel.Select(requests("standard-opt4", "livermore"))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "livermore", conflict.First)
	assert.Equal(t, "standard-opt4", conflict.Second)
}

func TestSelector_ZeroEM_ExactlyOneWarning(t *testing.T) {
	sel, buf := newTestSelector(t)

	setup, err := sel.Select(requests("decay", "radioactive-decay", "elastic-hp"))
	require.NoError(t, err)
	assert.Nil(t, setup.EM)
	assert.Equal(t, 1, warningCount(buf), "zero EM must emit exactly one warning")
}

func TestSelector_DecaySlots(t *testing.T) {
	sel, _ := newTestSelector(t)

	setup, err := sel.Select(requests("livermore", "decay", "radioactive-decay"))
	require.NoError(t, err)
	require.NotNil(t, setup.Decay)
	require.NotNil(t, setup.RadioactiveDecay)
	assert.Equal(t, "decay", setup.Decay.Name())
	assert.Equal(t, "radioactive-decay", setup.RadioactiveDecay.Name())
}

func TestSelector_MissingDecayIsDebugOnly(t *testing.T) {
	sel, buf := newTestSelector(t)

	_, err := sel.Select(requests("livermore"))
	require.NoError(t, err)
	assert.Equal(t, 0, warningCount(buf))
	assert.Contains(t, buf.String(), "decay physics module not enabled")
	assert.Contains(t, buf.String(), "radioactive-decay physics module not enabled")
}

func TestSelector_HadronicKeepRequestOrder(t *testing.T) {
	sel, _ := newTestSelector(t)

	setup, err := sel.Select(requests("neutron-tracking-cut", "qgsp-bic-hp", "em-extra"))
	require.NoError(t, err)
	require.Len(t, setup.Hadronic, 3)
	assert.Equal(t, "neutron-tracking-cut", setup.Hadronic[0].Name())
	assert.Equal(t, "qgsp-bic-hp", setup.Hadronic[1].Name())
	assert.Equal(t, "em-extra", setup.Hadronic[2].Name())
}

func TestSelector_EmptyHadronicSubsetValid(t *testing.T) {
	sel, _ := newTestSelector(t)

	setup, err := sel.Select(requests("livermore"))
	require.NoError(t, err)
	assert.Empty(t, setup.Hadronic)
}

func TestSelector_UnknownNameWarnsAndSkips(t *testing.T) {
	sel, buf := newTestSelector(t)

	setup, err := sel.Select(requests("livermore", "quantum-gravity"))
	require.NoError(t, err)
	assert.Equal(t, "livermore", setup.EMName())
	assert.Equal(t, 1, warningCount(buf))
	assert.Contains(t, buf.String(), "quantum-gravity")
}

func TestSelector_DuplicateRequestKeepsFirstOptions(t *testing.T) {
	sel, _ := newTestSelector(t)

	setup, err := sel.Select([]ModuleRequest{
		{Name: "livermore", Options: map[string]string{"fluo": "false"}},
		{Name: "livermore", Options: map[string]string{"fluo": "true"}},
	})
	require.NoError(t, err)
	require.NotNil(t, setup.EM)
	assert.Equal(t, "false", setup.EM.Request.Option("fluo"))
}

func TestSetup_ModulesCompositionOrder(t *testing.T) {
	sel, _ := newTestSelector(t)

	setup, err := sel.Select(requests("elastic-hp", "decay", "penelope", "radioactive-decay", "neutron-tracking-cut"))
	require.NoError(t, err)

	var names []string
	for _, m := range setup.Modules() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"penelope", "decay", "radioactive-decay", "elastic-hp", "neutron-tracking-cut"}, names)
}

func TestSetup_EMNameEmptyWithoutEM(t *testing.T) {
	setup := &Setup{}
	assert.Equal(t, "", setup.EMName())
}
