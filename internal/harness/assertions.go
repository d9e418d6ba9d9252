package harness

import (
	"fmt"
	"strings"

	"github.com/tmadas/beamline/internal/kernel"
)

// AssertionError is returned when an assertion fails. Expected and Actual
// are human-readable descriptions of the two sides.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %s failed: expected %s, actual %s", e.Type, e.Expected, e.Actual)
}

// evaluateAssertions runs every assertion against the composed kernel and
// the captured result, appending one error per failure.
func evaluateAssertions(result *Result, kern *kernel.Kernel, assertions []Assertion) {
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertModules:
			err = assertModules(result.Modules, a)
		case AssertHasProcess:
			err = assertHasProcess(kern, a)
		case AssertProcessOrder:
			err = assertProcessOrder(kern, a)
		case AssertParticleCount:
			err = assertParticleCount(kern, a)
		case AssertCut:
			err = assertCut(kern, a)
		case AssertWarning:
			err = assertWarning(result.Warnings, a)
		default:
			err = fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			result.AddError(err.Error())
		}
	}
}

// assertModules checks the selected module list, order included.
func assertModules(modules []string, a Assertion) error {
	if len(modules) == len(a.Modules) {
		match := true
		for i := range modules {
			if modules[i] != a.Modules[i] {
				match = false
				break
			}
		}
		if match {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertModules,
		Expected: fmt.Sprintf("modules %v", a.Modules),
		Actual:   fmt.Sprintf("modules %v", modules),
	}
}

// assertHasProcess checks that the species carries the process label.
func assertHasProcess(kern *kernel.Kernel, a Assertion) error {
	procs, err := particleProcesses(kern, a.Particle, AssertHasProcess)
	if err != nil {
		return err
	}
	for _, label := range procs {
		if label == a.Process {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertHasProcess,
		Expected: fmt.Sprintf("process %q on %s", a.Process, a.Particle),
		Actual:   fmt.Sprintf("processes %v", procs),
	}
}

// assertProcessOrder checks that the labels appear on the species in the
// given order. Other labels may sit between them.
func assertProcessOrder(kern *kernel.Kernel, a Assertion) error {
	procs, err := particleProcesses(kern, a.Particle, AssertProcessOrder)
	if err != nil {
		return err
	}
	next := 0
	for _, label := range procs {
		if next < len(a.Processes) && label == a.Processes[next] {
			next++
		}
	}
	if next == len(a.Processes) {
		return nil
	}
	return &AssertionError{
		Type:     AssertProcessOrder,
		Expected: fmt.Sprintf("%s processes in order %v", a.Particle, a.Processes),
		Actual:   fmt.Sprintf("processes %v, matched %d of %d", procs, next, len(a.Processes)),
	}
}

// assertParticleCount checks the species count in the particle table.
func assertParticleCount(kern *kernel.Kernel, a Assertion) error {
	particles := kern.Particles()
	if len(particles) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertParticleCount,
		Expected: fmt.Sprintf("%d species", a.Count),
		Actual:   fmt.Sprintf("%d species %v", len(particles), particles),
	}
}

// assertCut checks the production cut for the species.
func assertCut(kern *kernel.Kernel, a Assertion) error {
	got := kern.CutFor(a.Particle)
	if got == a.MM {
		return nil
	}
	return &AssertionError{
		Type:     AssertCut,
		Expected: fmt.Sprintf("cut %g mm for %s", a.MM, a.Particle),
		Actual:   fmt.Sprintf("cut %g mm", got),
	}
}

// assertWarning checks that some captured warning contains the substring.
func assertWarning(warnings []string, a Assertion) error {
	for _, w := range warnings {
		if strings.Contains(w, a.Contains) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertWarning,
		Expected: fmt.Sprintf("a warning containing %q", a.Contains),
		Actual:   fmt.Sprintf("warnings %v", warnings),
	}
}

func particleProcesses(kern *kernel.Kernel, name, assertType string) ([]string, error) {
	p, ok := kern.Particle(name)
	if !ok {
		return nil, &AssertionError{
			Type:     assertType,
			Expected: fmt.Sprintf("species %q in the particle table", name),
			Actual:   fmt.Sprintf("known species %v", kern.Particles()),
		}
	}
	return p.Processes(), nil
}
