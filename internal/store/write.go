package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tmadas/beamline/internal/meta"
)

// EventRecord is one completed event as persisted in the artifact.
type EventRecord struct {
	RunID     string
	EventID   int64
	Seed      int64
	Primaries int64
}

// CreateRun inserts the run row. The row is created before execution starts;
// FinalizeRun completes it.
func (s *Store) CreateRun(ctx context.Context, md meta.RunMetadata, status string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, tag, run_type, user, seed, kernel_version, requested_events,
		 desired_entries, time_limit_ns, config_digest, status, start_time_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		md.RunID,
		md.Tag,
		md.Type,
		md.User,
		md.Seed,
		md.KernelVersion,
		md.RequestedEvents,
		md.DesiredEntries,
		int64(md.TimeLimit),
		md.ConfigDigest,
		status,
		md.StartTime.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// WriteEvent inserts one event row. Duplicate (run, event) pairs are
// rejected by the primary key; the kernel never emits duplicates.
func (s *Store) WriteEvent(ctx context.Context, ev EventRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (run_id, event_id, seed, primaries)
		VALUES (?, ?, ?, ?)
	`,
		ev.RunID,
		ev.EventID,
		ev.Seed,
		ev.Primaries,
	)
	if err != nil {
		return fmt.Errorf("write event %d: %w", ev.EventID, err)
	}
	return nil
}

// WriteSection stores a named binary attachment, replacing any previous
// content under the same name.
func (s *Store) WriteSection(ctx context.Context, runID, name string, content []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sections (run_id, name, content)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, name) DO UPDATE SET content = excluded.content
	`,
		runID,
		name,
		content,
	)
	if err != nil {
		return fmt.Errorf("write section %q: %w", name, err)
	}
	return nil
}

// FinalizeRun records the terminal status, the processed-event count, and
// the end timestamp on the run row.
func (s *Store) FinalizeRun(ctx context.Context, runID, status string, processed int64, end time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, processed_events = ?, end_time_ns = ?
		WHERE id = ?
	`,
		status,
		processed,
		end.UnixNano(),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finalize run: run %q not found", runID)
	}
	return nil
}
