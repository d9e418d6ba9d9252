// Package store provides the SQLite-backed output artifact of a run.
//
// The artifact holds three tables:
//   - runs: resolved run metadata plus lifecycle status and final counts
//   - events: one row per completed event (id, seed, primary count)
//   - sections: named binary attachments; finalization archives the
//     geometry document under the section name "Geometry"
//
// Writes arrive from a single goroutine (the orchestrator's event sink), so
// the store keeps one connection open and relies on WAL mode for concurrent
// readers such as `beamline report` against a live artifact.
//
// A finalized artifact is self-describing: the run row records the seed,
// configuration digest, and kernel version needed to reproduce the run.
package store
