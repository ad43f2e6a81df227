package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorderTextfile(t *testing.T) {
	r := New()

	r.ObserveRecord("imported", 2*time.Millisecond)
	r.ObserveRecord("imported", 3*time.Millisecond)
	r.ObserveRecord("skipped", time.Millisecond)
	r.AddMalformed(4)
	r.AddMalformed(0)
	r.SetLibraryRows("tracks", 2)
	r.FinishRun("completed", []string{"completed", "cancelled", "failed"}, 1500*time.Millisecond)

	path := filepath.Join(t.TempDir(), "tunes.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	text := string(content)

	tests := []string{
		`tunes_import_records_total{status="imported"} 2`,
		`tunes_import_records_total{status="skipped"} 1`,
		`tunes_import_malformed_pairs_total 4`,
		`tunes_import_record_duration_seconds_count 3`,
		`tunes_import_run_duration_seconds 1.5`,
		`tunes_import_last_run_status{status="completed"} 1`,
		`tunes_import_last_run_status{status="failed"} 0`,
		`tunes_library_rows{table="tracks"} 2`,
	}

	for _, want := range tests {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestRecordersAreIsolated(t *testing.T) {
	a := New()
	b := New()

	a.ObserveRecord("failed", time.Millisecond)

	families, err := b.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() == "tunes_import_records_total" && len(family.GetMetric()) > 0 {
			t.Error("records observed on one recorder leaked into another")
		}
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder

	// Should not panic
	r.ObserveRecord("imported", time.Millisecond)
	r.AddMalformed(1)
	r.SetLibraryRows("tracks", 1)
	r.FinishRun("completed", nil, time.Second)

	if r.Registry() != nil {
		t.Error("nil recorder should have no registry")
	}
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("nil recorder WriteTextfile should be a no-op, got %v", err)
	}
}
