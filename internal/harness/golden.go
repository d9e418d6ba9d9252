package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/tmadas/beamline/internal/meta"
)

// TraceSnapshot is the golden-file form of a scenario outcome. It is
// serialized as canonical JSON so the bytes are stable across runs.
type TraceSnapshot struct {
	Scenario string       `json:"scenario"`
	EM       string       `json:"em,omitempty"`
	Modules  []string     `json:"modules"`
	Warnings []string     `json:"warnings,omitempty"`
	Trace    []TraceEvent `json:"trace"`
}

// RunWithGolden executes a scenario and compares its trace snapshot against
// testdata/golden/{scenario.Name}.golden. Only passing scenarios can be
// goldened; a failing scenario aborts the test with its errors.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result := Run(scenario)
	if !result.Pass {
		t.Fatalf("scenario %s failed: %v", scenario.Name, result.Errors)
	}

	snapshot := TraceSnapshot{
		Scenario: scenario.Name,
		EM:       result.EM,
		Modules:  result.Modules,
		Warnings: result.Warnings,
		Trace:    result.Trace,
	}
	data, err := meta.CanonicalJSON(snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot for %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result
}
