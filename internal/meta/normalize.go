package meta

import (
	"fmt"
	"slices"
	"strings"

	"github.com/franz/tunes/internal/plist"
	"github.com/franz/tunes/internal/util"
	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"
)

// Source keys checked by the exclusion rules (before key normalization)
const (
	keyKind  = "Kind"
	keyGenre = "Genre"
)

// NormalizeKey maps a source key such as "Album Artist" to "album_artist"
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), " ", "_")
}

// Normalize converts one track's raw nodes into a Record.
//
// Nodes are consumed as <key> followed by a non-key value. A key followed
// by another key, a value with no key before it, or a trailing key is
// skipped and the walk resumes at the next node. A rejected record returns
// a zero Record.
func Normalize(track plist.Track, rules Rules) (Record, Verdict) {
	var rec Record
	var verdict Verdict

	for i := 0; i < len(track); {
		keyNode := track[i]
		if !keyNode.IsKey() || i+1 >= len(track) || track[i+1].IsKey() {
			verdict.Malformed++
			i++
			continue
		}
		valueNode := track[i+1]
		i += 2

		key := keyNode.Value()
		value := valueNode.Value()

		if reason, rejected := rules.rejects(key, value); rejected {
			return Record{}, Verdict{Rejected: true, Reason: reason, Malformed: verdict.Malformed}
		}

		if err := rec.set(NormalizeKey(key), value); err != nil {
			util.DebugLog("Skipping %q: %v", key, err)
			verdict.Malformed++
		}

		// artist may arrive before or after album_artist/sort_artist
		rec.applyFallbacks()
	}

	return rec, verdict
}

func (r Rules) rejects(key, value string) (string, bool) {
	switch key {
	case keyKind:
		if slices.Contains(r.ExcludeKinds, value) {
			return fmt.Sprintf("kind %q excluded", value), true
		}
	case keyGenre:
		if slices.Contains(r.ExcludeGenres, value) {
			return fmt.Sprintf("genre %q excluded", value), true
		}
	}
	return "", false
}

// set assigns one allow-listed field. Keys outside the allow-list are ignored.
func (r *Record) set(field, value string) error {
	if !Fields[field] {
		return nil
	}

	switch field {
	case FieldTrackID, FieldPlayCount, FieldTotalTime, FieldTrackNumber, FieldYear:
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		switch field {
		case FieldTrackID:
			r.TrackID = n
		case FieldPlayCount:
			r.PlayCount = n
		case FieldTotalTime:
			r.TotalTime = n
		case FieldTrackNumber:
			r.TrackNumber = n
		case FieldYear:
			r.Year = n
		}
		return nil
	}

	text := norm.NFC.String(value)
	switch field {
	case FieldPersistentID:
		r.PersistentID = text
	case FieldName:
		r.Name = text
	case FieldArtist:
		r.Artist = text
	case FieldAlbumArtist:
		r.AlbumArtist = text
	case FieldSortArtist:
		r.SortArtist = text
	case FieldComposer:
		r.Composer = text
	case FieldAlbum:
		r.Album = text
	case FieldSortAlbum:
		r.SortAlbum = text
	case FieldGenre:
		r.Genre = text
	}
	return nil
}

func (r *Record) applyFallbacks() {
	if r.AlbumArtist == "" {
		r.AlbumArtist = r.Artist
	}
	if r.SortArtist == "" {
		r.SortArtist = r.Artist
	}
}

// toInt coerces a plist <integer>/<string> value. Leading zeros are
// stripped so "08" is decimal 8 rather than an invalid octal literal.
func toInt(value string) (int, error) {
	s := strings.TrimSpace(value)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(strings.TrimPrefix(s, "-"), "0")
	if s == "" {
		s = "0"
	}
	if negative {
		s = "-" + s
	}
	return cast.ToIntE(s)
}
