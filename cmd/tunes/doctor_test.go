package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/tunes/internal/store"
	"github.com/spf13/afero"
)

func TestCheckSQLite(t *testing.T) {
	result := checkSQLite()

	if result.error {
		t.Errorf("SQLite check failed: %s", result.message)
	}

	if result.message == "" {
		t.Error("expected version information in message")
	}
}

func TestCheckDatabase_NonExistent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nonexistent.db")

	result := checkDatabase(dbPath)

	// Should not error - database will be created on first import
	if result.error {
		t.Errorf("non-existent database check should not error: %s", result.message)
	}

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Error("checking a missing database must not create it")
	}
}

func TestCheckDatabase_Existing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	err = db.Transaction(context.Background(), func(tx *store.Tx) error {
		_, err := tx.InsertTrack("Test", 0, 0, sql.NullInt64{})
		return err
	})
	if err != nil {
		t.Fatalf("failed to insert test track: %v", err)
	}
	db.Close()

	result := checkDatabase(dbPath)

	if result.error {
		t.Errorf("database check failed: %s", result.message)
	}

	if !strings.Contains(result.message, "1 tracks") {
		t.Errorf("expected track count in message, got %q", result.message)
	}
}

func TestCheckDatabase_Empty(t *testing.T) {
	result := checkDatabase("")

	if !result.warning {
		t.Error("expected warning for empty database path")
	}
}

func TestCheckDatabase_Directory(t *testing.T) {
	result := checkDatabase(t.TempDir())

	if !result.error {
		t.Error("expected error when database path is a directory")
	}
}

func TestCheckLibrary(t *testing.T) {
	fsys := afero.NewMemMapFs()

	files := map[string]string{
		"good.xml": `<plist><dict><key>Tracks</key><dict>
			<key>1</key><dict><key>Name</key><string>A</string></dict>
		</dict></dict></plist>`,
		"empty.xml":     `<plist><dict><key>Tracks</key><dict></dict></dict></plist>`,
		"broken.xml":    `<plist><dict>`,
		"structure.xml": `<plist><array/></plist>`,
	}
	for name, content := range files {
		afero.WriteFile(fsys, name, []byte(content), 0644)
	}

	tests := []struct {
		path        string
		wantError   bool
		wantWarning bool
	}{
		{"good.xml", false, false},
		{"empty.xml", false, true},
		{"broken.xml", true, false},
		{"structure.xml", true, false},
		{"missing.xml", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := checkLibrary(fsys, tt.path)
			if result.error != tt.wantError || result.warning != tt.wantWarning {
				t.Errorf("checkLibrary(%s) = error %v warning %v (%s), want error %v warning %v",
					tt.path, result.error, result.warning, result.message, tt.wantError, tt.wantWarning)
			}
		})
	}
}

func TestCheckArtifactsDirectory_Valid(t *testing.T) {
	result := checkArtifactsDirectory(t.TempDir())

	if result.error {
		t.Errorf("artifacts directory check failed: %s", result.message)
	}
}

func TestCheckArtifactsDirectory_Create(t *testing.T) {
	newDir := filepath.Join(t.TempDir(), "artifacts")

	result := checkArtifactsDirectory(newDir)

	if result.error {
		t.Errorf("artifacts directory check failed: %s", result.message)
	}

	if _, err := os.Stat(newDir); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}
}

func TestCheckArtifactsDirectory_File(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(filePath, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := checkArtifactsDirectory(filePath)

	if !result.error {
		t.Error("expected error when path is a file, not a directory")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := checkDiskSpace(t.TempDir(), "test")

	if result.error {
		t.Errorf("disk space check failed: %s", result.message)
	}

	if result.message == "" {
		t.Error("expected message with disk space info")
	}
}

func TestCheckDiskSpace_NonExistent(t *testing.T) {
	result := checkDiskSpace("/nonexistent/path", "test")

	// Should produce a warning (not error)
	if !result.warning {
		t.Error("expected warning for non-existent path")
	}
}
