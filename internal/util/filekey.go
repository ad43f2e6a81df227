package util

import (
	"crypto/sha1"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// GenerateContentHash creates a SHA1 hash of file content.
// Used to recognise re-imports of the same library export.
func GenerateContentHash(fsys afero.Fs, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// GetFileSize returns the size of a file in bytes
func GetFileSize(fsys afero.Fs, path string) (int64, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.Size(), nil
}
