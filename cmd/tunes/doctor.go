package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/franz/tunes/internal/plist"
	"github.com/franz/tunes/internal/store"
	"github.com/franz/tunes/internal/util"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure tunes can operate correctly.

This command checks:
- SQLite version
- Database accessibility and integrity
- Library export readability and structure
- Artifacts directory permissions
- Disk space next to the database

Use this command to troubleshoot issues before importing.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringP("library", "l", "", "Library export to check (optional)")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

// minFreeBytes is the free space below which the database volume is flagged
const minFreeBytes = 1 << 30

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== tunes doctor - System Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{}

	results = append(results, checkSQLite())

	dbPath := viper.GetString("db")
	results = append(results, checkDatabase(dbPath))

	libraryPath, _ := cmd.Flags().GetString("library")
	if libraryPath == "" {
		libraryPath = GetConfigString(keyLibrary, "")
	}
	if libraryPath != "" {
		results = append(results, checkLibrary(afero.NewOsFs(), libraryPath))
	}

	results = append(results, checkArtifactsDirectory(GetConfigString(keyArtifacts, "artifacts")))

	if dbPath != "" {
		results = append(results, checkDiskSpace(filepath.Dir(dbPath), "database"))
	}

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before importing.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! Ready to import.")
	}

	return nil
}

// checkSQLite verifies the embedded SQLite is usable
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies database file accessibility
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first import)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	tracks := 0
	if counts, err := db.CountRows(context.Background()); err == nil {
		tracks = counts.Tracks
	}

	return checkResult{
		name: "Database",
		message: fmt.Sprintf("%s (%s, %s tracks)", dbPath,
			humanize.Bytes(uint64(info.Size())), humanize.Comma(int64(tracks))),
	}
}

// checkLibrary verifies the export parses and contains a track collection
func checkLibrary(fsys afero.Fs, path string) checkResult {
	size, err := util.GetFileSize(fsys, path)
	if err != nil {
		return checkResult{
			name:    "Library",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	doc, err := plist.ParseFile(fsys, path)
	if err != nil {
		return checkResult{
			name:    "Library",
			error:   true,
			message: err.Error(),
		}
	}

	tracks, err := plist.ExtractTracks(doc)
	if err != nil {
		return checkResult{
			name:    "Library",
			error:   true,
			message: err.Error(),
		}
	}

	if len(tracks) == 0 {
		return checkResult{
			name:    "Library",
			warning: true,
			message: fmt.Sprintf("%s has no track records", path),
		}
	}

	return checkResult{
		name: "Library",
		message: fmt.Sprintf("%s (%s, %s track records)", path,
			humanize.Bytes(uint64(size)), humanize.Comma(int64(len(tracks)))),
	}
}

// checkArtifactsDirectory verifies event logs and summaries can be written
func checkArtifactsDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    "Artifacts directory",
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    "Artifacts directory",
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	testFile := filepath.Join(path, ".tunes_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Artifacts directory",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	// Available bytes = available blocks * block size
	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))

	usedPercent := 0.0
	if totalBytes > 0 {
		usedPercent = float64(usedBytes) / float64(totalBytes) * 100
	}

	warning := false
	warningMsg := ""
	if availBytes < minFreeBytes {
		warning = true
		warningMsg = " (low space!)"
	} else if usedPercent > 95 {
		warning = true
		warningMsg = " (>95% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%s available%s", humanize.IBytes(availBytes), warningMsg),
	}
}
