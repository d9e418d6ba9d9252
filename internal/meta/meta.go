// Package meta resolves the run metadata recorded in the output artifact:
// identifiers, tags, seeds, requested counts, and the configuration digest
// that ties an artifact back to the exact configuration that produced it.
package meta

import (
	"os"
	"time"
)

const (
	// MaxPrimaries is the requested-event count recorded for interactive
	// runs, which have no fixed event bound.
	MaxPrimaries = 2147483647

	// RunType tags every artifact produced by this program.
	RunType = "beamline"
)

// RunMetadata is the resolved, immutable description of one run. EndTime
// stays zero until finalization.
type RunMetadata struct {
	RunID           string
	Tag             string
	Type            string
	User            string
	Seed            int64
	KernelVersion   string
	RequestedEvents int64
	DesiredEntries  int64
	TimeLimit       time.Duration
	ConfigDigest    string
	StartTime       time.Time
	EndTime         time.Time
}

// ResolveOptions carries the raw inputs Resolve turns into RunMetadata.
type ResolveOptions struct {
	Title          string
	Tag            string
	Seed           int64
	Events         int64
	DesiredEntries int64
	TimeLimit      time.Duration
	KernelVersion  string
	ConfigDigest   string

	// IDs defaults to UUIDv7Generator.
	IDs IDGenerator
	// Now defaults to time.Now.
	Now func() time.Time
}

// Resolve applies the metadata defaulting rules:
//
//   - an unset tag falls back to the configuration title, then to "run"
//   - seed 0 is replaced by the wall-clock nanosecond count and recorded,
//     so every artifact names the seed that actually drove it
//   - an interactive run (Events == 0) records the MaxPrimaries sentinel
//   - the user comes from the USER environment variable, "unknown" when
//     absent
func Resolve(opts ResolveOptions) RunMetadata {
	gen := opts.IDs
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	tag := opts.Tag
	if tag == "" {
		tag = opts.Title
	}
	if tag == "" {
		tag = "run"
	}

	seed := opts.Seed
	if seed == 0 {
		seed = start.UnixNano()
	}

	events := opts.Events
	if events == 0 {
		events = MaxPrimaries
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}

	return RunMetadata{
		RunID:           gen.Generate(),
		Tag:             tag,
		Type:            RunType,
		User:            user,
		Seed:            seed,
		KernelVersion:   opts.KernelVersion,
		RequestedEvents: events,
		DesiredEntries:  opts.DesiredEntries,
		TimeLimit:       opts.TimeLimit,
		ConfigDigest:    opts.ConfigDigest,
		StartTime:       start,
	}
}

// Interactive reports whether the run was resolved without a fixed event
// bound.
func (m RunMetadata) Interactive() bool {
	return m.RequestedEvents == MaxPrimaries
}
