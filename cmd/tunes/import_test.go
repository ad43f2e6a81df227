package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/franz/tunes/internal/importer"
	"github.com/franz/tunes/internal/meta"
	"github.com/franz/tunes/internal/plist"
	"github.com/franz/tunes/internal/store"
	"github.com/spf13/viper"
)

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name   string
		result *importer.Result
		err    error
		want   string
	}{
		{"completed", &importer.Result{Total: 3, Imported: 3}, nil, store.RunCompleted},
		{"completed with failures", &importer.Result{Total: 3, Imported: 2, Failed: 1}, nil, store.RunCompleted},
		{"cancelled", &importer.Result{Total: 3, Imported: 1, Cancelled: true}, nil, store.RunCancelled},
		{"error", nil, errors.New("boom"), store.RunFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runStatus(tt.result, tt.err); got != tt.want {
				t.Errorf("runStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExclusionRulesDefaults(t *testing.T) {
	setDefaults()

	rules := exclusionRules()
	if len(rules.ExcludeKinds) != 1 || rules.ExcludeKinds[0] != "Purchased MPEG-4 video file" {
		t.Errorf("unexpected kinds: %v", rules.ExcludeKinds)
	}
	if len(rules.ExcludeGenres) != 1 || rules.ExcludeGenres[0] != "Sound Clip" {
		t.Errorf("unexpected genres: %v", rules.ExcludeGenres)
	}
}

func TestExclusionRulesFromEnvironment(t *testing.T) {
	t.Setenv("TUNES_EXCLUDE_KINDS", "Purchased MPEG-4 video file")
	t.Setenv("TUNES_EXCLUDE_GENRES", "Sound Clip, Podcast")

	viper.SetEnvPrefix("TUNES")
	viper.AutomaticEnv()
	setDefaults()

	rules := exclusionRules()
	if len(rules.ExcludeKinds) != 1 || rules.ExcludeKinds[0] != "Purchased MPEG-4 video file" {
		t.Errorf("kinds = %q, want the whole value as one entry", rules.ExcludeKinds)
	}
	if len(rules.ExcludeGenres) != 2 || rules.ExcludeGenres[0] != "Sound Clip" || rules.ExcludeGenres[1] != "Podcast" {
		t.Errorf("genres = %q", rules.ExcludeGenres)
	}

	doc, err := plist.Parse(strings.NewReader(`<plist version="1.0"><dict>
<key>Tracks</key><dict>
<key>1</key><dict>
<key>Name</key><string>Trailer</string>
<key>Kind</key><string>Purchased MPEG-4 video file</string>
</dict>
</dict>
</dict></plist>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tracks, err := plist.ExtractTracks(doc)
	if err != nil || len(tracks) != 1 {
		t.Fatalf("ExtractTracks: %v (%d tracks)", err, len(tracks))
	}

	if _, verdict := meta.Normalize(tracks[0], rules); !verdict.Rejected {
		t.Error("video record should be excluded by the environment rule")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Sound Clip", []string{"Sound Clip"}},
		{"Sound Clip,Podcast", []string{"Sound Clip", "Podcast"}},
		{" Sound Clip , , Podcast ", []string{"Sound Clip", "Podcast"}},
		{"", []string{}},
	}

	for _, tt := range tests {
		if got := splitList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tunes.db")
	artifacts := filepath.Join(dir, "artifacts")
	promFile := filepath.Join(dir, "tunes.prom")
	library := filepath.Join("..", "..", "internal", "plist", "testdata", "library.xml")

	args := []string{
		"import", "--library", library, "--db", dbPath,
		"--artifacts", artifacts, "--metrics-file", promFile,
		"--concurrency", "2", "--quiet",
	}

	// The same export twice: reference rows are reused, tracks are added again
	for i := 0; i < 2; i++ {
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("import run %d failed: %v", i+1, err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	counts, err := db.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if counts.Tracks != 4 || counts.Artists != 1 || counts.Albums != 1 || counts.Genres != 1 {
		t.Errorf("unexpected library counts: %+v", counts)
	}

	runs, err := db.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 recorded runs, got %d", len(runs))
	}
	for _, run := range runs {
		if run.Status != store.RunCompleted || run.Imported != 2 || run.Skipped != 1 || run.Total != 3 {
			t.Errorf("unexpected run: %+v", run)
		}
		if run.SourceSHA1 == "" || run.FinishedAt.IsZero() {
			t.Errorf("run missing hash or finish time: %+v", run)
		}
	}
	if runs[0].SourceSHA1 != runs[1].SourceSHA1 {
		t.Error("the same export should hash identically")
	}

	// Back-to-back runs keep separate artifacts
	for _, pattern := range []string{"events-*.jsonl", "import-summary-*.md"} {
		matches, _ := filepath.Glob(filepath.Join(artifacts, pattern))
		if len(matches) != 2 {
			t.Errorf("expected 2 artifacts matching %s, got %v", pattern, matches)
		}
	}

	prom, err := os.ReadFile(promFile)
	if err != nil {
		t.Fatalf("failed to read metrics file: %v", err)
	}
	if !strings.Contains(string(prom), `tunes_library_rows{table="tracks"} 4`) {
		t.Errorf("metrics file missing library row count:\n%s", prom)
	}
}
