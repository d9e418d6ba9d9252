package kernel

import "math/rand"

// Generator produces the primary particles of one event and returns how many
// it produced. The generator is an external collaborator boundary: the
// kernel calls it once per event with a deterministic per-event RNG and
// treats the result as opaque.
//
// Implementations must be safe for concurrent use; in multi-threaded mode
// every worker calls GeneratePrimaries with its own RNG instance.
type Generator interface {
	GeneratePrimaries(eventID int64, rng *rand.Rand) int
}

// Gun is the minimal generator: a fixed species fired a fixed number of
// times per event. A zero Gun fires one geantino.
type Gun struct {
	Particle string
	Count    int
}

// GeneratePrimaries implements Generator.
func (g Gun) GeneratePrimaries(_ int64, _ *rand.Rand) int {
	if g.Count <= 0 {
		return 1
	}
	return g.Count
}
