package importer

import (
	"context"

	"github.com/franz/tunes/internal/meta"
	"github.com/franz/tunes/internal/store"
	"github.com/franz/tunes/internal/util"
)

// persist writes one record in a single transaction, retrying when SQLite
// reports lock contention. A record that fails leaves no rows behind.
func (im *Importer) persist(ctx context.Context, rec meta.Record) (int64, error) {
	return util.RetryWithBackoff(ctx, util.StoreRetryConfig(), func() (int64, error) {
		var trackID int64
		err := im.store.Transaction(ctx, func(tx *store.Tx) error {
			var err error
			trackID, err = writeRecord(tx, rec)
			return err
		})
		return trackID, err
	}, "persist record")
}

// writeRecord resolves the genre, creates the track, credits the artist
// and places the track on its album, in that order. Empty names leave the
// matching reference unset and the link unwritten.
func writeRecord(tx *store.Tx, rec meta.Record) (int64, error) {
	genreID, err := tx.ResolveGenre(rec.Genre)
	if err != nil {
		return 0, err
	}

	trackID, err := tx.InsertTrack(rec.Name, rec.Year, rec.PlayCount, genreID)
	if err != nil {
		return 0, err
	}

	artistID, err := tx.ResolveArtist(rec.Artist)
	if err != nil {
		return 0, err
	}
	if artistID.Valid {
		if err := tx.LinkTrackArtist(trackID, artistID.Int64, store.RolePrimary); err != nil {
			return 0, err
		}
	}

	albumID, err := tx.ResolveAlbum(rec.Album, rec.Year, artistID)
	if err != nil {
		return 0, err
	}
	if albumID.Valid {
		if err := tx.LinkTrackAlbum(trackID, albumID.Int64, rec.TrackNumber); err != nil {
			return 0, err
		}
	}

	return trackID, nil
}
