package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClampBarWidth(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-20, minBarWidth},
		{5, minBarWidth},
		{25, 25},
		{200, maxBarWidth},
	}

	for _, tt := range tests {
		if got := clampBarWidth(tt.in); got != tt.want {
			t.Errorf("clampBarWidth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestProgressBarOnRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if ShowProgressBar(f) {
		t.Error("a regular file is not a terminal")
	}
	if got := ProgressBarWidth(f, 80); got != maxBarWidth {
		t.Errorf("ProgressBarWidth() = %d, want %d", got, maxBarWidth)
	}
	if ShowProgressBar(nil) {
		t.Error("nil file should not show a progress bar")
	}
}
