package util

import (
	"testing"

	"github.com/spf13/afero"
)

func TestGenerateContentHash(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/lib/a.xml", []byte("<plist/>"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := afero.WriteFile(fsys, "/lib/b.xml", []byte("<plist/>"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := afero.WriteFile(fsys, "/lib/c.xml", []byte("<plist></plist>"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	a, err := GenerateContentHash(fsys, "/lib/a.xml")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, _ := GenerateContentHash(fsys, "/lib/b.xml")
	c, _ := GenerateContentHash(fsys, "/lib/c.xml")

	if len(a) != 40 {
		t.Errorf("expected 40 hex chars, got %d", len(a))
	}
	if a != b {
		t.Errorf("identical content should hash equal: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different content should hash differently")
	}

	if _, err := GenerateContentHash(fsys, "/lib/missing.xml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetFileSize(t *testing.T) {
	fsys := afero.NewMemMapFs()
	afero.WriteFile(fsys, "/lib.xml", []byte("12345"), 0644)

	size, err := GetFileSize(fsys, "/lib.xml")
	if err != nil {
		t.Fatalf("GetFileSize: %v", err)
	}
	if size != 5 {
		t.Errorf("expected 5 bytes, got %d", size)
	}
}
