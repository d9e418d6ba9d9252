package harness

import (
	"fmt"

	"github.com/tmadas/beamline/internal/kernel"
	"github.com/tmadas/beamline/internal/physics"
)

// CheckComposition verifies the structural invariants every composed kernel
// must satisfy, independent of which modules were selected:
//
//   - every species has the transportation process, and has it first
//   - no species carries the same process label twice
//   - every ion species carries the canonical name for its (Z, A)
//
// The harness runs these after every successful composition; scenarios never
// need to spell them out. Returns one message per violation.
func CheckComposition(kern *kernel.Kernel) []string {
	var problems []string
	for _, name := range kern.Particles() {
		p, ok := kern.Particle(name)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: listed but not resolvable", name))
			continue
		}

		procs := p.Processes()
		if len(procs) == 0 || procs[0] != physics.Transportation {
			problems = append(problems, fmt.Sprintf("%s: transportation is not the first process: %v", name, procs))
		}

		seen := make(map[string]bool, len(procs))
		for _, label := range procs {
			if seen[label] {
				problems = append(problems, fmt.Sprintf("%s: process %q registered twice", name, label))
			}
			seen[label] = true
		}

		if p.Z > 0 {
			if want := physics.IonName(p.Z, p.A); name != want {
				problems = append(problems, fmt.Sprintf("%s: ion (Z=%d, A=%d) should be named %q", name, p.Z, p.A, want))
			}
		}
	}
	return problems
}
