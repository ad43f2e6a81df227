package plist

import (
	"errors"
	"strings"
	"testing"

	"github.com/franz/tunes/internal/util"
)

func mustParse(t *testing.T, input string) *Node {
	t.Helper()
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestExtractTracksUsesLastNestedDict(t *testing.T) {
	doc := mustParse(t, `<plist><dict>
		<key>Features</key><dict><key>x</key><dict><key>Name</key><string>not a track</string></dict></dict>
		<key>Tracks</key><dict>
			<key>1</key><dict><key>Name</key><string>One</string></dict>
			<key>2</key><dict><key>Name</key><string>Two</string></dict>
		</dict>
		<key>Playlists</key><array><dict><key>Name</key><string>Library</string></dict></array>
	</dict></plist>`)

	tracks, err := ExtractTracks(doc)
	if err != nil {
		t.Fatalf("ExtractTracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}

	for i, name := range []string{"One", "Two"} {
		track := tracks[i]
		if len(track) != 2 {
			t.Fatalf("track %d: expected 2 nodes, got %d", i, len(track))
		}
		if !track[0].IsKey() || track[0].Value() != "Name" {
			t.Errorf("track %d: expected Name key first, got <%s>%s", i, track[0].Name, track[0].Value())
		}
		if track[1].Value() != name {
			t.Errorf("track %d: expected %q, got %q", i, name, track[1].Value())
		}
	}
}

func TestExtractTracksEmptyCollection(t *testing.T) {
	doc := mustParse(t, `<plist><dict><key>Tracks</key><dict></dict></dict></plist>`)

	tracks, err := ExtractTracks(doc)
	if err != nil {
		t.Fatalf("empty collection should not be an error, got %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("expected 0 tracks, got %d", len(tracks))
	}
}

func TestExtractTracksStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty document", ``},
		{"no plist root", `<dict><key>Tracks</key><dict/></dict>`},
		{"plist without dict", `<plist><array/></plist>`},
		{"no nested dict", `<plist><dict><key>Major Version</key><integer>1</integer></dict></plist>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.input)
			_, err := ExtractTracks(doc)
			if !errors.Is(err, util.ErrStructure) {
				t.Errorf("expected ErrStructure, got %v", err)
			}
		})
	}

	if _, err := ExtractTracks(nil); !errors.Is(err, util.ErrStructure) {
		t.Errorf("nil document: expected ErrStructure, got %v", err)
	}
}
