package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/tunes/internal/store"
)

// SummaryReport describes one import run and the library it left behind
type SummaryReport struct {
	GeneratedAt time.Time
	Duration    time.Duration

	// Run identity
	RunID      string
	Status     string
	DryRun     bool
	SourcePath string
	SourceSHA1 string

	// Record outcomes
	Total     int
	Imported  int
	Skipped   int
	Failed    int
	Malformed int // stray or uncoercible nodes across all records

	// Details
	SkipReasons []ReasonCount
	TopErrors   []ReasonCount

	// Library state after the run
	Library   *store.Counts
	TopGenres []store.GenreCount

	// Artifacts
	DatabasePath string
	EventLogPath string
}

// ReasonCount is a skip reason or error message with its number of occurrences
type ReasonCount struct {
	Reason string
	Count  int
}

// GenerateSummaryReport creates a summary report for a finished run.
// Library totals are read from the store; per-record details are filled in
// by the caller.
func GenerateSummaryReport(ctx context.Context, db *store.Store, run *store.ImportRun, eventLogPath string) (*SummaryReport, error) {
	report := &SummaryReport{
		GeneratedAt:  time.Now(),
		EventLogPath: eventLogPath,
		SkipReasons:  make([]ReasonCount, 0),
		TopErrors:    make([]ReasonCount, 0),
	}

	if run != nil {
		report.RunID = run.RunID
		report.Status = run.Status
		report.SourcePath = run.SourcePath
		report.SourceSHA1 = run.SourceSHA1
		report.Total = run.Total
		report.Imported = run.Imported
		report.Skipped = run.Skipped
		report.Failed = run.Failed
		if !run.FinishedAt.IsZero() {
			report.Duration = run.FinishedAt.Sub(run.StartedAt)
		}
	}

	if db == nil {
		return report, nil
	}

	counts, err := db.CountRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count library rows: %w", err)
	}
	report.Library = counts

	genres, err := db.TopGenres(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to gather genres: %w", err)
	}
	report.TopGenres = genres

	return report, nil
}

// RankReasons counts identical messages and returns the most common first
func RankReasons(messages []string, limit int) []ReasonCount {
	counts := make(map[string]int)
	for _, msg := range messages {
		if msg != "" {
			counts[msg]++
		}
	}

	ranked := make([]ReasonCount, 0, len(counts))
	for reason, count := range counts {
		ranked = append(ranked, ReasonCount{Reason: reason, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Reason < ranked[j].Reason
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# Library Import - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.RunID != "" {
		md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", report.RunID))
	}
	if report.SourcePath != "" {
		md.WriteString(fmt.Sprintf("**Library:** `%s`\n\n", report.SourcePath))
	}
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}
	if report.DryRun {
		md.WriteString("**Mode:** dry run, nothing was written to the database\n\n")
	}

	md.WriteString("---\n\n")

	// Overview
	md.WriteString("## 📊 Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	if report.Status != "" {
		md.WriteString(fmt.Sprintf("| Status | %s |\n", report.Status))
	}
	md.WriteString(fmt.Sprintf("| Records | %s |\n", humanize.Comma(int64(report.Total))))
	md.WriteString(fmt.Sprintf("| Imported | %s |\n", humanize.Comma(int64(report.Imported))))
	md.WriteString(fmt.Sprintf("| Skipped | %s |\n", humanize.Comma(int64(report.Skipped))))
	if report.Failed > 0 {
		md.WriteString(fmt.Sprintf("| Failed | %s |\n", humanize.Comma(int64(report.Failed))))
	}
	if report.Malformed > 0 {
		md.WriteString(fmt.Sprintf("| Malformed Pairs | %s |\n", humanize.Comma(int64(report.Malformed))))
	}
	if report.Duration > 0 {
		md.WriteString(fmt.Sprintf("| Duration | %s |\n", report.Duration.Round(time.Millisecond)))
	}
	md.WriteString("\n")

	// Library totals
	if report.Library != nil {
		md.WriteString("## 🎵 Library\n\n")
		md.WriteString("| Table | Rows |\n")
		md.WriteString("|-------|------|\n")
		md.WriteString(fmt.Sprintf("| Tracks | %s |\n", humanize.Comma(int64(report.Library.Tracks))))
		md.WriteString(fmt.Sprintf("| Artists | %s |\n", humanize.Comma(int64(report.Library.Artists))))
		md.WriteString(fmt.Sprintf("| Albums | %s |\n", humanize.Comma(int64(report.Library.Albums))))
		md.WriteString(fmt.Sprintf("| Genres | %s |\n", humanize.Comma(int64(report.Library.Genres))))
		md.WriteString("\n")
	}

	if len(report.TopGenres) > 0 {
		md.WriteString("## 🏷️ Top Genres\n\n")
		md.WriteString("| Genre | Tracks |\n")
		md.WriteString("|-------|--------|\n")
		for _, genre := range report.TopGenres {
			md.WriteString(fmt.Sprintf("| %s | %s |\n", escapeCell(genre.Name), humanize.Comma(int64(genre.Tracks))))
		}
		md.WriteString("\n")
	}

	if len(report.SkipReasons) > 0 {
		md.WriteString("## ⏭️ Skipped Records\n\n")
		md.WriteString("| Count | Reason |\n")
		md.WriteString("|-------|--------|\n")
		for _, reason := range report.SkipReasons {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", reason.Count, escapeCell(reason.Reason)))
		}
		md.WriteString("\n")
	}

	if len(report.TopErrors) > 0 {
		md.WriteString("## ⚠️ Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, reason := range report.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", reason.Count, escapeCell(reason.Reason)))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by tunes*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// escapeCell keeps pipes in track or genre names from breaking a table row
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
