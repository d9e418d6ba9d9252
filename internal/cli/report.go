package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmadas/beamline/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Run    string
	Status string
	Tag    string
}

// RunSummary is one row of the artifact's run listing.
type RunSummary struct {
	ID        string `json:"id"`
	Tag       string `json:"tag"`
	Status    string `json:"status"`
	Events    int64  `json:"events"`
	StartTime string `json:"start_time"`
}

// ArtifactReport is the run listing for a whole artifact.
type ArtifactReport struct {
	Artifact string       `json:"artifact"`
	Runs     []RunSummary `json:"runs"`
}

// EventSummary aggregates the event table of one run.
type EventSummary struct {
	Count          int64 `json:"count"`
	MinSeed        int64 `json:"min_seed"`
	MaxSeed        int64 `json:"max_seed"`
	TotalPrimaries int64 `json:"total_primaries"`
}

// RunReport is the full report for a single run.
type RunReport struct {
	ID              string       `json:"id"`
	Tag             string       `json:"tag"`
	Type            string       `json:"type"`
	User            string       `json:"user"`
	Seed            int64        `json:"seed"`
	KernelVersion   string       `json:"kernel_version"`
	RequestedEvents int64        `json:"requested_events"`
	DesiredEntries  int64        `json:"desired_entries,omitempty"`
	TimeLimit       string       `json:"time_limit,omitempty"`
	ConfigDigest    string       `json:"config_digest"`
	Status          string       `json:"status"`
	ProcessedEvents int64        `json:"processed_events"`
	StartTime       string       `json:"start_time"`
	EndTime         string       `json:"end_time,omitempty"`
	ElapsedSeconds  int64        `json:"elapsed_seconds"`
	EventStats      EventSummary `json:"event_stats"`
	Sections        []string     `json:"sections"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <artifact.db>",
		Short: "Report runs recorded in an artifact",
		Long: `Read a finalized artifact and report its contents.

Without --run the command lists every run in the artifact; --status and
--tag narrow that listing. With --run it prints the full record for that
run: metadata, event statistics, and the archived sections.

Examples:
  beamline report run.db
  beamline report run.db --status interrupted
  beamline report run.db --run 0190e4a2-41c3-7cde-b111-6d1718f00a11
  beamline report run.db --format json`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Run, "run", "", "report a single run by id")
	cmd.Flags().StringVar(&opts.Status, "status", "", "list only runs with this status")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "list only runs with this tag")

	return cmd
}

func runReport(opts *ReportOptions, artifactPath string, cmd *cobra.Command) error {
	filter := store.RunFilter{Status: opts.Status, Tag: opts.Tag}
	if opts.Run != "" && !filter.IsZero() {
		return NewExitError(ExitUsageError,
			"--status and --tag narrow the run listing and cannot be combined with --run")
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}

	// Opening a path that does not exist would create an empty database
	// there, so reject it before touching the store.
	if _, err := os.Stat(artifactPath); err != nil {
		_ = formatter.Error("artifact", err.Error(), nil)
		return WrapExitError(ExitFailure, "report failed", err)
	}

	st, err := store.Open(artifactPath)
	if err != nil {
		_ = formatter.Error("artifact", err.Error(), nil)
		return WrapExitError(ExitFailure, "report failed", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Run != "" {
		return reportRun(ctx, formatter, st, opts.Run)
	}
	return reportArtifact(ctx, formatter, st, artifactPath, filter)
}

func reportArtifact(ctx context.Context, formatter *OutputFormatter, st *store.Store, artifactPath string, filter store.RunFilter) error {
	runs, err := st.ListRuns(ctx, filter)
	if err != nil {
		_ = formatter.Error("artifact", err.Error(), nil)
		return WrapExitError(ExitFailure, "report failed", err)
	}

	report := ArtifactReport{
		Artifact: artifactPath,
		Runs:     []RunSummary{},
	}
	for _, r := range runs {
		report.Runs = append(report.Runs, RunSummary{
			ID:        r.ID,
			Tag:       r.Tag,
			Status:    r.Status,
			Events:    r.ProcessedEvents,
			StartTime: r.StartTime.Format(time.RFC3339),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Artifact: %s\n", report.Artifact)
	fmt.Fprintf(w, "Runs: %d\n", len(report.Runs))
	if len(report.Runs) > 0 {
		fmt.Fprintln(w)
		for _, r := range report.Runs {
			fmt.Fprintf(w, "  %s  %-12s %6d events  %s  %s\n",
				r.ID, r.Status, r.Events, r.StartTime, r.Tag)
		}
	}
	return nil
}

func reportRun(ctx context.Context, formatter *OutputFormatter, st *store.Store, runID string) error {
	rec, err := st.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			msg := fmt.Sprintf("run %q not found", runID)
			_ = formatter.Error("artifact", msg, nil)
			return NewExitError(ExitFailure, msg)
		}
		_ = formatter.Error("artifact", err.Error(), nil)
		return WrapExitError(ExitFailure, "report failed", err)
	}

	stats, err := st.Stats(ctx, runID)
	if err != nil {
		_ = formatter.Error("artifact", err.Error(), nil)
		return WrapExitError(ExitFailure, "report failed", err)
	}
	sections, err := st.Sections(ctx, runID)
	if err != nil {
		_ = formatter.Error("artifact", err.Error(), nil)
		return WrapExitError(ExitFailure, "report failed", err)
	}

	report := buildRunReport(rec, stats, sections)

	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	renderRunReportText(formatter.Writer, report)
	return nil
}

func buildRunReport(rec store.RunRecord, stats store.EventStats, sections []string) RunReport {
	report := RunReport{
		ID:              rec.ID,
		Tag:             rec.Tag,
		Type:            rec.Type,
		User:            rec.User,
		Seed:            rec.Seed,
		KernelVersion:   rec.KernelVersion,
		RequestedEvents: rec.RequestedEvents,
		DesiredEntries:  rec.DesiredEntries,
		ConfigDigest:    rec.ConfigDigest,
		Status:          rec.Status,
		ProcessedEvents: rec.ProcessedEvents,
		StartTime:       rec.StartTime.Format(time.RFC3339),
		ElapsedSeconds:  int64(rec.Elapsed().Seconds()),
		EventStats: EventSummary{
			Count:          stats.Count,
			MinSeed:        stats.MinSeed,
			MaxSeed:        stats.MaxSeed,
			TotalPrimaries: stats.TotalPrimaries,
		},
		Sections: sections,
	}
	if rec.TimeLimit > 0 {
		report.TimeLimit = rec.TimeLimit.String()
	}
	if !rec.EndTime.IsZero() {
		report.EndTime = rec.EndTime.Format(time.RFC3339)
	}
	return report
}

func renderRunReportText(w io.Writer, report RunReport) {
	fmt.Fprintf(w, "Run: %s (%s)\n", report.ID, report.Status)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Metadata ===")
	fmt.Fprintf(w, "  tag:              %s\n", report.Tag)
	fmt.Fprintf(w, "  type:             %s\n", report.Type)
	fmt.Fprintf(w, "  user:             %s\n", report.User)
	fmt.Fprintf(w, "  seed:             %d\n", report.Seed)
	fmt.Fprintf(w, "  kernel version:   %s\n", report.KernelVersion)
	fmt.Fprintf(w, "  requested events: %d\n", report.RequestedEvents)
	if report.DesiredEntries > 0 {
		fmt.Fprintf(w, "  desired entries:  %d\n", report.DesiredEntries)
	}
	if report.TimeLimit != "" {
		fmt.Fprintf(w, "  time limit:       %s\n", report.TimeLimit)
	}
	fmt.Fprintf(w, "  config digest:    %s\n", report.ConfigDigest)
	fmt.Fprintf(w, "  started:          %s\n", report.StartTime)
	if report.EndTime != "" {
		fmt.Fprintf(w, "  finished:         %s\n", report.EndTime)
		fmt.Fprintf(w, "  elapsed:          %d seconds\n", report.ElapsedSeconds)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Events ===")
	fmt.Fprintf(w, "  processed:       %d\n", report.ProcessedEvents)
	fmt.Fprintf(w, "  recorded:        %d\n", report.EventStats.Count)
	if report.EventStats.Count > 0 {
		fmt.Fprintf(w, "  seed range:      %d .. %d\n", report.EventStats.MinSeed, report.EventStats.MaxSeed)
	}
	fmt.Fprintf(w, "  total primaries: %d\n", report.EventStats.TotalPrimaries)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Sections ===")
	if len(report.Sections) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, name := range report.Sections {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}
