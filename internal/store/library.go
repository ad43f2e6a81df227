package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/franz/tunes/internal/util"
)

// Tx is a transaction scoped to the writes of one imported record
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// ResolveGenre finds or creates the genre with this exact name.
// An empty name does not resolve and returns an invalid NullInt64.
func (t *Tx) ResolveGenre(name string) (sql.NullInt64, error) {
	return t.resolve(tableGenre, "name", name,
		`INSERT INTO genre (name) VALUES (?)
		 ON CONFLICT(name) DO UPDATE SET name = excluded.name
		 RETURNING id`, name)
}

// ResolveArtist finds or creates the artist with this exact name
func (t *Tx) ResolveArtist(name string) (sql.NullInt64, error) {
	return t.resolve(tableArtists, "name", name,
		`INSERT INTO artists (name) VALUES (?)
		 ON CONFLICT(name) DO UPDATE SET name = excluded.name
		 RETURNING id`, name)
}

// ResolveAlbum finds or creates the album with this exact title. year and
// artistID are only used when the album is created.
func (t *Tx) ResolveAlbum(title string, year int, artistID sql.NullInt64) (sql.NullInt64, error) {
	return t.resolve(tableAlbums, "title", title,
		`INSERT INTO albums (title, year, artist_id) VALUES (?, ?, ?)
		 ON CONFLICT(title) DO UPDATE SET title = excluded.title
		 RETURNING id`, title, nullInt(year), artistID)
}

// resolve looks the natural key up first and inserts only on a miss. The
// insert is an upsert returning the id, so a row committed by another
// writer between the lookup and the insert is reused rather than duplicated.
func (t *Tx) resolve(table, column, value, insert string, args ...any) (sql.NullInt64, error) {
	if value == "" {
		return sql.NullInt64{}, nil
	}

	rows, err := t.tx.QueryContext(t.ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE %s = ? LIMIT 2", table, column), value)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("failed to look up %s %q: %w", table, value, err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return sql.NullInt64{}, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return sql.NullInt64{}, fmt.Errorf("failed to look up %s %q: %w", table, value, err)
	}
	rows.Close()

	switch len(ids) {
	case 1:
		return sql.NullInt64{Int64: ids[0], Valid: true}, nil
	case 0:
	default:
		return sql.NullInt64{}, fmt.Errorf("%s %q: %w", table, value, util.ErrAmbiguous)
	}

	var id int64
	if err := t.tx.QueryRowContext(t.ctx, insert, args...).Scan(&id); err != nil {
		return sql.NullInt64{}, fmt.Errorf("failed to insert %s %q: %w", table, value, err)
	}

	return sql.NullInt64{Int64: id, Valid: true}, nil
}

// InsertTrack always creates a new track row; tracks are never deduplicated
func (t *Tx) InsertTrack(title string, year, playcount int, genreID sql.NullInt64) (int64, error) {
	result, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO tracks (title, year, playcount, genre_id)
		VALUES (?, ?, ?, ?)
	`, title, nullInt(year), playcount, genreID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert track %q: %w", title, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get track ID: %w", err)
	}

	return id, nil
}

// LinkTrackArtist credits an artist on a track with the given role
func (t *Tx) LinkTrackArtist(trackID, artistID, roleID int64) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO tracks_artists (track_id, artist_id, role_id)
		VALUES (?, ?, ?)
	`, trackID, artistID, roleID)
	if err != nil {
		return fmt.Errorf("failed to link track %d to artist %d: %w", trackID, artistID, err)
	}
	return nil
}

// LinkTrackAlbum places a track on an album at the given position
func (t *Tx) LinkTrackAlbum(trackID, albumID int64, trackNumber int) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO tracks_albums (track_id, album_id, track_number)
		VALUES (?, ?, ?)
	`, trackID, albumID, nullInt(trackNumber))
	if err != nil {
		return fmt.Errorf("failed to link track %d to album %d: %w", trackID, albumID, err)
	}
	return nil
}

// nullInt stores zero (the "absent" default of normalized records) as NULL
func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
