// Package importer runs normalized library records into the store.
package importer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/franz/tunes/internal/meta"
	"github.com/franz/tunes/internal/metrics"
	"github.com/franz/tunes/internal/plist"
	"github.com/franz/tunes/internal/report"
	"github.com/franz/tunes/internal/store"
	"github.com/franz/tunes/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"
)

// Status is the outcome of one record
type Status string

const (
	StatusImported Status = "imported"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Statuses lists every record outcome, in report order
var Statuses = []Status{StatusImported, StatusSkipped, StatusFailed}

// maxDefaultWorkers caps the pool when no concurrency is configured.
// Writes serialize on the single SQLite connection, so more workers only
// overlap normalization with persistence.
const maxDefaultWorkers = 8

// progressReserved is the room the bar's description and counters take
const progressReserved = 80

// Importer normalizes and persists library records
type Importer struct {
	store       *store.Store
	rules       meta.Rules
	concurrency int
	limiter     *rate.Limiter
	dryRun      bool
	logger      *report.EventLogger
	metrics     *metrics.Recorder
}

// Config holds importer configuration
type Config struct {
	Store       *store.Store
	Rules       meta.Rules
	Concurrency int
	RateLimit   float64 // records per second, 0 for unlimited
	DryRun      bool    // normalize only, never touch the store
	Logger      *report.EventLogger
	Metrics     *metrics.Recorder
}

// New creates a new Importer
func New(cfg *Config) *Importer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = util.GetWorkerCount(maxDefaultWorkers)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Importer{
		store:       cfg.Store,
		rules:       cfg.Rules,
		concurrency: cfg.Concurrency,
		limiter:     limiter,
		dryRun:      cfg.DryRun,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Outcome is what happened to one record
type Outcome struct {
	Index     int // 1-based position in the track collection
	Status    Status
	TrackID   int64
	Title     string
	Reason    string // exclusion reason for skipped records
	Malformed int
	Err       error
}

// Result represents an import result
type Result struct {
	Total       int
	Imported    int
	Skipped     int
	Failed      int
	Malformed   int
	SkipReasons []string
	Errors      []error
	Cancelled   bool
	Duration    time.Duration
}

// Processed returns the number of records that were started and finished
func (r *Result) Processed() int {
	return r.Imported + r.Skipped + r.Failed
}

// ErrorMessages returns the text of every record failure
func (r *Result) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// Import processes all tracks with a bounded worker pool. A failing record
// never stops the run. When ctx is cancelled no further records are
// started, records already in flight finish, and the result is marked
// Cancelled.
func (im *Importer) Import(ctx context.Context, tracks []plist.Track) (*Result, error) {
	if im.store == nil && !im.dryRun {
		return nil, fmt.Errorf("%w: importer has no store", util.ErrInvalidConfig)
	}

	start := time.Now()
	result := &Result{
		Total:       len(tracks),
		SkipReasons: make([]string, 0),
		Errors:      make([]error, 0),
	}

	mode := "Importing"
	if im.dryRun {
		mode = "Dry run"
	}
	util.InfoLog("%s %d records with %d workers", mode, len(tracks), im.concurrency)

	var mu sync.Mutex
	var processed, imported, skipped, failed atomic.Int64

	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	// Piped or quiet runs fall back to periodic progress lines
	var bar *progressbar.ProgressBar
	if util.ShowProgressBar(os.Stdout) && len(tracks) > 0 {
		bar = progressbar.NewOptions(len(tracks),
			progressbar.OptionSetDescription(mode),
			progressbar.OptionSetWidth(util.ProgressBarWidth(os.Stdout, progressReserved)),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("records"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				done := processed.Load()
				if bar != nil {
					bar.Describe(fmt.Sprintf("%s | %d imported | %d skipped | %d failed",
						mode, imported.Load(), skipped.Load(), failed.Load()))
					bar.Set64(done)
				} else if done > 0 {
					util.InfoLog("Progress: %d/%d records (imported: %d, skipped: %d, failed: %d)",
						done, len(tracks), imported.Load(), skipped.Load(), failed.Load())
				}
			}
		}
	}()

	p := pool.New().WithMaxGoroutines(im.concurrency)

	submitted := 0
	for i, track := range tracks {
		if ctx.Err() != nil {
			break
		}
		if im.limiter != nil {
			if err := im.limiter.Wait(ctx); err != nil {
				break
			}
		}

		submitted++
		p.Go(func() {
			out := im.ProcessRecord(ctx, i+1, track)

			processed.Add(1)
			switch out.Status {
			case StatusImported:
				imported.Add(1)
			case StatusSkipped:
				skipped.Add(1)
			case StatusFailed:
				failed.Add(1)
			}

			mu.Lock()
			defer mu.Unlock()
			result.Malformed += out.Malformed
			switch out.Status {
			case StatusSkipped:
				result.SkipReasons = append(result.SkipReasons, out.Reason)
			case StatusFailed:
				result.Errors = append(result.Errors, fmt.Errorf("record %d: %w", out.Index, out.Err))
			}
		})
	}

	p.Wait()
	cancelProgress()

	result.Imported = int(imported.Load())
	result.Skipped = int(skipped.Load())
	result.Failed = int(failed.Load())
	// A signal that arrives after the last record was handed out does not
	// cancel a run that is already complete
	result.Cancelled = submitted < len(tracks)
	result.Duration = time.Since(start)

	if bar != nil {
		bar.Finish()
	}

	if result.Cancelled {
		util.WarnLog("Import cancelled after %d/%d records", result.Processed(), result.Total)
	}

	util.SuccessLog("%s complete: %d imported, %d skipped, %d failed in %s",
		mode, result.Imported, result.Skipped, result.Failed, result.Duration.Round(time.Millisecond))

	return result, nil
}

// ProcessRecord normalizes one track and, unless it is rejected or the
// importer is in dry-run mode, persists it. index is 1-based.
func (im *Importer) ProcessRecord(ctx context.Context, index int, track plist.Track) Outcome {
	start := time.Now()

	rec, verdict := meta.Normalize(track, im.rules)
	out := Outcome{
		Index:     index,
		Title:     rec.Name,
		Malformed: verdict.Malformed,
	}

	switch {
	case verdict.Rejected:
		out.Status = StatusSkipped
		out.Reason = verdict.Reason
		util.DebugLog("Skipping record %d: %s", index, verdict.Reason)
		im.logger.LogSkip(index, rec.Name, verdict.Reason)

	case im.dryRun:
		out.Status = StatusImported

	default:
		// Let a record that has started finish even if the run is cancelled
		trackID, err := im.persist(context.WithoutCancel(ctx), rec)
		if err != nil {
			out.Status = StatusFailed
			out.Err = err
			util.ErrorLog("Failed to import record %d (%q): %v", index, rec.Name, err)
			im.logger.LogError(index, rec.Name, err)
			break
		}
		out.Status = StatusImported
		out.TrackID = trackID
		util.DebugLog("Imported record %d: %q (track %d)", index, rec.Name, trackID)
		im.logger.LogImport(index, trackID, rec.Name, rec.Artist, rec.Album, verdict.Malformed, time.Since(start))
	}

	im.metrics.ObserveRecord(string(out.Status), time.Since(start))
	im.metrics.AddMalformed(verdict.Malformed)

	return out
}
