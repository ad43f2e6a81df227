package plist

import (
	"errors"
	"strings"
	"testing"

	"github.com/franz/tunes/internal/util"
	"github.com/spf13/afero"
)

func TestParsePreservesSiblingOrder(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict>
	<key>Name</key><string>Song</string>
	<key>Play Count</key><integer>3</integer>
	<key>Compilation</key><true/>
	<key>Artist</key><string>Band</string>
</dict></plist>`

	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(doc.Children) != 1 || doc.Children[0].Name != ElemPlist {
		t.Fatalf("expected single <plist> root, got %+v", doc.Children)
	}

	dict := doc.Children[0].Children[0]
	want := []struct {
		name  string
		value string
	}{
		{"key", "Name"},
		{"string", "Song"},
		{"key", "Play Count"},
		{"integer", "3"},
		{"key", "Compilation"},
		{"true", "true"},
		{"key", "Artist"},
		{"string", "Band"},
	}

	if len(dict.Children) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(dict.Children))
	}
	for i, w := range want {
		got := dict.Children[i]
		if got.Name != w.name || got.Value() != w.value {
			t.Errorf("child %d: got <%s>%q, want <%s>%q", i, got.Name, got.Value(), w.name, w.value)
		}
	}
}

func TestParseKeepsTextVerbatim(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<plist><dict><key>Name</key><string>  Rock &amp; Roll </string></dict></plist>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	value := doc.Children[0].Children[0].Children[1]
	if value.Text != "  Rock & Roll " {
		t.Errorf("expected entity-decoded text with whitespace kept, got %q", value.Text)
	}
}

func TestParseDropsCommentsAndDirectives(t *testing.T) {
	input := `<?xml version="1.0"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<!-- exported -->
<plist><dict><!-- inner --><key>A</key><string>b</string></dict></plist>`

	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Children) != 1 {
		t.Fatalf("expected 1 top-level element, got %d", len(doc.Children))
	}
	if n := len(doc.Children[0].Children[0].Children); n != 2 {
		t.Errorf("expected comment to be dropped, dict has %d children", n)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed element", `<plist><dict><key>A</key>`},
		{"mismatched tags", `<plist><dict></plist></dict>`},
		{"garbage", `<plist><<>`},
		{"text outside root", `<plist></plist>trailing`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, util.ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	doc, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty input should parse to an empty document, got %v", err)
	}
	if len(doc.Children) != 0 {
		t.Errorf("expected no children, got %d", len(doc.Children))
	}
}

func TestParseFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	afero.WriteFile(fsys, "/Library.xml", []byte(`<plist><dict/></plist>`), 0644)

	doc, err := ParseFile(fsys, "/Library.xml")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if doc.Children[0].Name != ElemPlist {
		t.Errorf("expected plist root, got %s", doc.Children[0].Name)
	}

	_, err = ParseFile(fsys, "/missing.xml")
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing file, got %v", err)
	}
}

func TestParseFileFixture(t *testing.T) {
	doc, err := ParseFile(afero.NewOsFs(), "testdata/library.xml")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	tracks, err := ExtractTracks(doc)
	if err != nil {
		t.Fatalf("ExtractTracks: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks in fixture, got %d", len(tracks))
	}
	if tracks[0][1].Value() != "1001" {
		t.Errorf("expected first track id 1001, got %q", tracks[0][1].Value())
	}
}
