package run

import (
	"context"
	"sync/atomic"

	"github.com/tmadas/beamline/internal/kernel"
	"github.com/tmadas/beamline/internal/store"
)

// artifactSink persists completed events into the output artifact. The
// kernel's collector calls RecordEvent from a single goroutine, so the sink
// is the artifact's only writer during Running. Stored is read concurrently
// by the stop predicate.
type artifactSink struct {
	ctx    context.Context
	st     *store.Store
	runID  string
	stored atomic.Int64
}

func newArtifactSink(ctx context.Context, st *store.Store, runID string) *artifactSink {
	return &artifactSink{ctx: ctx, st: st, runID: runID}
}

func (s *artifactSink) RecordEvent(ev kernel.Event) error {
	rec := store.EventRecord{
		RunID:     s.runID,
		EventID:   ev.ID,
		Seed:      ev.Seed,
		Primaries: int64(ev.Primaries),
	}
	if err := s.st.WriteEvent(s.ctx, rec); err != nil {
		return err
	}
	s.stored.Add(1)
	return nil
}

// Stored returns how many events reached the artifact.
func (s *artifactSink) Stored() int64 {
	return s.stored.Load()
}
