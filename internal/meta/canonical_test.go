package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSON_SortedKeys(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{
		"zeta":  1,
		"alpha": "x",
		"mid":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"x","mid":true,"zeta":1}`, string(got))
}

func TestCanonicalJSON_NestedStructures(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{
		"modules": []any{
			map[string]any{"name": "livermore", "options": map[string]any{"fluo": "true"}},
			map[string]any{"name": "decay"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"modules":[{"name":"livermore","options":{"fluo":"true"}},{"name":"decay"}]}`,
		string(got))
}

func TestCanonicalJSON_NFCNormalization(t *testing.T) {
	composed, err := CanonicalJSON("café")
	require.NoError(t, err)
	decomposed, err := CanonicalJSON("café")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestCanonicalJSON_NoHTMLEscaping(t *testing.T) {
	got, err := CanonicalJSON("<a>&</a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a>&</a>"`, string(got))
}

func TestCanonicalJSON_NumbersKeepDecodedForm(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{"cut": 0.1, "events": 1000})
	require.NoError(t, err)
	assert.Equal(t, `{"cut":0.1,"events":1000}`, string(got))
}

func TestCanonicalJSON_StructInput(t *testing.T) {
	type cuts struct {
		Default float64 `json:"default_mm"`
		Gamma   float64 `json:"gamma_mm"`
	}
	got, err := CanonicalJSON(cuts{Default: 0.1, Gamma: 0.05})
	require.NoError(t, err)
	assert.Equal(t, `{"default_mm":0.1,"gamma_mm":0.05}`, string(got))
}

func TestConfigDigest_Stable(t *testing.T) {
	v := map[string]any{"title": "calibration", "events": 1000}

	first, err := ConfigDigest(v)
	require.NoError(t, err)
	second, err := ConfigDigest(v)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestConfigDigest_DistinguishesValues(t *testing.T) {
	a, err := ConfigDigest(map[string]any{"events": 1000})
	require.NoError(t, err)
	b, err := ConfigDigest(map[string]any{"events": 1001})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCanonicalJSON_UnmarshalableInput(t *testing.T) {
	_, err := CanonicalJSON(make(chan int))
	require.Error(t, err)
}
