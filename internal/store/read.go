package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRecord mirrors one row of the runs table. EndTime is zero while the run
// is still open.
type RunRecord struct {
	ID              string
	Tag             string
	Type            string
	User            string
	Seed            int64
	KernelVersion   string
	RequestedEvents int64
	DesiredEntries  int64
	TimeLimit       time.Duration
	ConfigDigest    string
	Status          string
	ProcessedEvents int64
	StartTime       time.Time
	EndTime         time.Time
}

// Elapsed returns the wall time between start and end, zero while open.
func (r RunRecord) Elapsed() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// EventStats aggregates the events of one run.
type EventStats struct {
	Count          int64
	MinSeed        int64
	MaxSeed        int64
	TotalPrimaries int64
}

const runColumns = `id, tag, run_type, user, seed, kernel_version,
	requested_events, desired_entries, time_limit_ns, config_digest, status,
	processed_events, start_time_ns, end_time_ns`

// GetRun returns one run row. Returns sql.ErrNoRows if not found.
func (s *Store) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	rec, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns the run rows matching filter ordered by start time, then
// id. The zero filter matches every run. Returns an empty slice when nothing
// matches.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	where, params := filter.where()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs`+where+runOrder, params...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Events returns the event rows of a run ordered by event id. Returns an
// empty slice when the run has none.
func (s *Store) Events(ctx context.Context, runID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, event_id, seed, primaries
		FROM events
		WHERE run_id = ?
		ORDER BY event_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var ev EventRecord
		if err := rows.Scan(&ev.RunID, &ev.EventID, &ev.Seed, &ev.Primaries); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Stats aggregates the events of a run. A run with no events yields zeroes.
func (s *Store) Stats(ctx context.Context, runID string) (EventStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(MIN(seed), 0),
		       COALESCE(MAX(seed), 0),
		       COALESCE(SUM(primaries), 0)
		FROM events
		WHERE run_id = ?
	`, runID)

	var st EventStats
	if err := row.Scan(&st.Count, &st.MinSeed, &st.MaxSeed, &st.TotalPrimaries); err != nil {
		return EventStats{}, fmt.Errorf("event stats: %w", err)
	}
	return st, nil
}

// ReadSection returns the content archived under name. Returns
// sql.ErrNoRows if the section does not exist.
func (s *Store) ReadSection(ctx context.Context, runID, name string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT content FROM sections WHERE run_id = ? AND name = ?
	`, runID, name).Scan(&content)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("read section %q: %w", name, err)
	}
	return content, nil
}

// Sections returns the section names of a run in lexical order.
func (s *Store) Sections(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sections WHERE run_id = ? ORDER BY name ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan section name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return names, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		rec         RunRecord
		timeLimitNS int64
		startNS     int64
		endNS       sql.NullInt64
	)
	err := row.Scan(
		&rec.ID,
		&rec.Tag,
		&rec.Type,
		&rec.User,
		&rec.Seed,
		&rec.KernelVersion,
		&rec.RequestedEvents,
		&rec.DesiredEntries,
		&timeLimitNS,
		&rec.ConfigDigest,
		&rec.Status,
		&rec.ProcessedEvents,
		&startNS,
		&endNS,
	)
	if err != nil {
		return RunRecord{}, err
	}
	rec.TimeLimit = time.Duration(timeLimitNS)
	rec.StartTime = time.Unix(0, startNS).UTC()
	if endNS.Valid {
		rec.EndTime = time.Unix(0, endNS.Int64).UTC()
	}
	return rec, nil
}
