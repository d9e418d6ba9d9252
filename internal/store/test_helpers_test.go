package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tmadas/beamline/internal/meta"
)

// createTestStore opens a fresh artifact under a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestMetadata builds run metadata with deterministic fields.
func createTestMetadata(runID string) meta.RunMetadata {
	return meta.RunMetadata{
		RunID:           runID,
		Tag:             "calibration",
		Type:            "beamline",
		User:            "operator",
		Seed:            7001,
		KernelVersion:   "0.7.2",
		RequestedEvents: 1000,
		DesiredEntries:  500,
		TimeLimit:       90 * time.Minute,
		ConfigDigest:    "c0ffee",
		StartTime:       time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC),
	}
}

// createTestEvent builds one event row for runID.
func createTestEvent(runID string, eventID int64) EventRecord {
	return EventRecord{
		RunID:     runID,
		EventID:   eventID,
		Seed:      7001 + eventID,
		Primaries: 1,
	}
}
