// Package harness provides conformance testing for physics composition.
//
// The harness resolves configuration documents through the production
// pipeline: schema validation, module selection, kernel composition, and
// production cuts. Every kernel registration call is recorded as a trace
// event, so the exact composition sequence a configuration produces can be
// asserted on and locked down in golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files:
//
//	name: em-priority
//	description: "Livermore claims the EM slot regardless of request order"
//	config: |
//	  physics:
//	    modules:
//	      - name: elastic-hp
//	      - name: livermore
//	assertions:
//	  - type: modules
//	    modules: [livermore, elastic-hp]
//	  - type: process_order
//	    particle: e-
//	    processes: [Transportation, livermore, e-Step]
//
// A scenario that must fail names the error instead of assertions:
//
//	expect_error: "more than one electromagnetic physics module requested"
//
// # Assertion Types
//
//   - modules: selected modules equal the list, in composition order
//   - has_process: a species carries a process label
//   - process_order: labels appear on a species in the given order
//   - particle_count: the particle table holds exactly N species
//   - cut: the production cut for a species, in millimeters
//   - warning: a captured warning contains a substring
//
// # Determinism
//
// Composition for a fixed configuration is fully deterministic: module
// order, particle creation order, and process registration order never
// vary. Traces therefore compare byte-for-byte across runs, which is what
// makes golden comparison via RunWithGolden sound. Structural invariants
// (transportation first, no duplicate labels, canonical ion names) are
// checked on every successful composition without being spelled out in
// scenarios.
package harness
