package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/tunes/internal/importer"
	"github.com/franz/tunes/internal/metrics"
	"github.com/franz/tunes/internal/plist"
	"github.com/franz/tunes/internal/report"
	"github.com/franz/tunes/internal/store"
	"github.com/franz/tunes/internal/util"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a library export into the database",
	Long: `Parse a library export and load its tracks into the database.

For every track record:
- Store-purchased videos and sound clips are skipped
- Genre, artist and album are looked up by exact name and created if missing
- A new track row is written and linked to its artist and album

A record that fails to persist is logged and the import continues. Each run
is recorded in the database and leaves an event log and a Markdown summary
in the artifacts directory.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("library", "l", "", "library export file (XML property list)")
	importCmd.Flags().Int("concurrency", 0, "number of import workers (0 = one per CPU)")
	importCmd.Flags().Float64("rate", 0, "maximum records per second (0 = unlimited)")
	importCmd.Flags().Bool("dry-run", false, "parse and normalize only, write nothing to the database")
	importCmd.Flags().String("metrics-file", "", "write run metrics to this Prometheus textfile")
	importCmd.Flags().String("artifacts", "", "directory for event logs and summaries (default: artifacts)")

	viper.BindPFlag(keyLibrary, importCmd.Flags().Lookup("library"))
	viper.BindPFlag(keyConcurrency, importCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag(keyRate, importCmd.Flags().Lookup("rate"))
	viper.BindPFlag(keyDryRun, importCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag(keyMetricsFile, importCmd.Flags().Lookup("metrics-file"))
	viper.BindPFlag(keyArtifacts, importCmd.Flags().Lookup("artifacts"))
}

// runStatuses are the statuses an import run can end in
var runStatuses = []string{store.RunCompleted, store.RunCancelled, store.RunFailed}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	libraryPath := GetConfigString(keyLibrary, "")
	if libraryPath == "" {
		return fmt.Errorf("%w: library file is required (use --library/-l or set library in config)", util.ErrInvalidConfig)
	}
	if abs, err := filepath.Abs(libraryPath); err == nil {
		libraryPath = abs
	}

	dbPath := viper.GetString("db")
	dryRun := GetConfigBool(keyDryRun)
	artifacts := GetConfigString(keyArtifacts, "artifacts")
	metricsFile := GetConfigString(keyMetricsFile, "")

	// Parse and extract before touching the database: a broken export must
	// not leave a half-recorded run behind
	fsys := afero.NewOsFs()

	size, err := util.GetFileSize(fsys, libraryPath)
	if err != nil {
		return fmt.Errorf("%w: library file %s: %v", util.ErrNotFound, libraryPath, err)
	}
	util.InfoLog("Library: %s (%s)", libraryPath, humanize.Bytes(uint64(size)))

	parseStart := time.Now()
	doc, err := plist.ParseFile(fsys, libraryPath)
	if err != nil {
		return fmt.Errorf("failed to parse library: %w", err)
	}

	tracks, err := plist.ExtractTracks(doc)
	if err != nil {
		return fmt.Errorf("failed to read track collection: %w", err)
	}
	util.InfoLog("Found %s track records in %v", humanize.Comma(int64(len(tracks))),
		time.Since(parseStart).Round(time.Millisecond))

	hash, err := util.GenerateContentHash(fsys, libraryPath)
	if err != nil {
		return fmt.Errorf("failed to hash library: %w", err)
	}

	// Event log level follows terminal verbosity
	logLevel := report.LevelInfo
	if util.IsQuiet() {
		logLevel = report.LevelWarning
	} else if util.IsVerbose() {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger(artifacts, logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()

	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}

	run := &store.ImportRun{
		RunID:      uuid.NewString(),
		SourcePath: libraryPath,
		SourceSHA1: hash,
	}
	logger.SetRunID(run.RunID)

	var db *store.Store
	if !dryRun {
		util.InfoLog("Opening database: %s", dbPath)
		db, err = store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		previous, err := db.LastCompletedRunForHash(ctx, hash)
		if err != nil {
			return err
		}
		if previous != nil {
			util.WarnLog("This export was already imported %s (run %s); tracks will be added again",
				humanize.Time(previous.FinishedAt), previous.RunID)
		}

		if err := db.BeginRun(ctx, run); err != nil {
			return err
		}
	} else {
		util.InfoLog("Dry run: nothing will be written to the database")
		run.StartedAt = time.Now()
		run.Status = store.RunRunning
	}

	logger.LogRunStart(libraryPath, hash, len(tracks))
	recorder := metrics.New()

	im := importer.New(&importer.Config{
		Store:       db,
		Rules:       exclusionRules(),
		Concurrency: GetConfigInt(keyConcurrency, 0),
		RateLimit:   GetConfigFloat(keyRate, 0),
		DryRun:      dryRun,
		Logger:      logger,
		Metrics:     recorder,
	})

	result, importErr := im.Import(ctx, tracks)

	// The run is closed out even after an interrupt
	finishCtx := context.WithoutCancel(ctx)

	run.Total = len(tracks)
	run.Status = runStatus(result, importErr)
	if result != nil {
		run.Imported = result.Imported
		run.Skipped = result.Skipped
		run.Failed = result.Failed
	}
	if importErr != nil {
		run.Error = importErr.Error()
	}
	run.FinishedAt = time.Now()

	if db != nil {
		if err := db.FinishRun(finishCtx, run); err != nil {
			util.ErrorLog("Failed to record run result: %v", err)
		}
	}

	recorder.FinishRun(run.Status, runStatuses, run.FinishedAt.Sub(run.StartedAt))
	logger.LogRunFinish(run.Status, run.Imported, run.Skipped, run.Failed, run.FinishedAt.Sub(run.StartedAt))

	if importErr != nil {
		return fmt.Errorf("import failed: %w", importErr)
	}

	summary, err := report.GenerateSummaryReport(finishCtx, db, run, logger.Path())
	if err != nil {
		util.WarnLog("Failed to generate summary: %v", err)
	} else {
		summary.DryRun = dryRun
		summary.Malformed = result.Malformed
		summary.SkipReasons = report.RankReasons(result.SkipReasons, 10)
		summary.TopErrors = report.RankReasons(result.ErrorMessages(), 10)
		if !dryRun {
			summary.DatabasePath = dbPath
		}

		if summary.Library != nil {
			recorder.SetLibraryRows("genres", summary.Library.Genres)
			recorder.SetLibraryRows("artists", summary.Library.Artists)
			recorder.SetLibraryRows("albums", summary.Library.Albums)
			recorder.SetLibraryRows("tracks", summary.Library.Tracks)
		}

		timestamp := time.Now().Format("20060102-150405")
		summaryPath := filepath.Join(artifacts, fmt.Sprintf("import-summary-%s-%s.md", timestamp, shortID(run.RunID)))
		if err := report.WriteMarkdownReport(summary, summaryPath); err != nil {
			util.WarnLog("Failed to write summary: %v", err)
		} else {
			util.InfoLog("Summary: %s", summaryPath)
		}
	}

	if metricsFile != "" {
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			util.WarnLog("%v", err)
		} else {
			util.InfoLog("Metrics: %s", metricsFile)
		}
	}

	util.InfoLog("")
	util.SuccessLog("=== Import Summary ===")
	util.InfoLog("Run: %s (%s)", run.RunID, run.Status)
	util.InfoLog("  Imported: %s", humanize.Comma(int64(run.Imported)))
	util.InfoLog("  Skipped: %s", humanize.Comma(int64(run.Skipped)))
	if run.Failed > 0 {
		util.WarnLog("  Failed: %s", humanize.Comma(int64(run.Failed)))
	}
	if result.Malformed > 0 {
		util.WarnLog("  Malformed pairs skipped: %s", humanize.Comma(int64(result.Malformed)))
	}

	if result.Cancelled {
		return fmt.Errorf("import interrupted after %d of %d records", result.Processed(), result.Total)
	}

	return nil
}

// runStatus maps an import outcome to the status recorded for the run
func runStatus(result *importer.Result, err error) string {
	switch {
	case err != nil || result == nil:
		return store.RunFailed
	case result.Cancelled:
		return store.RunCancelled
	default:
		return store.RunCompleted
	}
}
