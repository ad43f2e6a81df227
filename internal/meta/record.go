// Package meta turns raw track dictionaries into fixed-shape records.
package meta

// Normalized field names. Only these keys survive normalization.
const (
	FieldTrackID      = "track_id"
	FieldPersistentID = "persistent_id"
	FieldName         = "name"
	FieldPlayCount    = "play_count"
	FieldTotalTime    = "total_time"
	FieldArtist       = "artist"
	FieldAlbumArtist  = "album_artist"
	FieldSortArtist   = "sort_artist"
	FieldComposer     = "composer"
	FieldAlbum        = "album"
	FieldSortAlbum    = "sort_album"
	FieldTrackNumber  = "track_number"
	FieldYear         = "year"
	FieldGenre        = "genre"
)

// Fields is the allow-list of normalized keys
var Fields = map[string]bool{
	FieldTrackID:      true,
	FieldPersistentID: true,
	FieldName:         true,
	FieldPlayCount:    true,
	FieldTotalTime:    true,
	FieldArtist:       true,
	FieldAlbumArtist:  true,
	FieldSortArtist:   true,
	FieldComposer:     true,
	FieldAlbum:        true,
	FieldSortAlbum:    true,
	FieldTrackNumber:  true,
	FieldYear:         true,
	FieldGenre:        true,
}

// Record is one library track after normalization. Fields never present
// in the source keep their zero value.
type Record struct {
	TrackID      int
	PersistentID string
	Name         string
	PlayCount    int
	TotalTime    int // milliseconds
	Artist       string
	AlbumArtist  string
	SortArtist   string
	Composer     string // raw text; multi-artist splitting is not attempted
	Album        string
	SortAlbum    string
	TrackNumber  int
	Year         int
	Genre        string
}

// Rules controls which source records are rejected outright
type Rules struct {
	ExcludeKinds  []string // exact values of the "Kind" key
	ExcludeGenres []string // exact values of the "Genre" key
}

// DefaultRules rejects store-purchased videos and sound clips
func DefaultRules() Rules {
	return Rules{
		ExcludeKinds:  []string{"Purchased MPEG-4 video file"},
		ExcludeGenres: []string{"Sound Clip"},
	}
}

// Verdict describes how normalization treated a record
type Verdict struct {
	Rejected  bool
	Reason    string // set when Rejected
	Malformed int    // number of stray or uncoercible nodes skipped
}
