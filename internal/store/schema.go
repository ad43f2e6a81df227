package store

// Table names
const (
	tableGenre         = "genre"
	tableArtists       = "artists"
	tableAlbums        = "albums"
	tableTracks        = "tracks"
	tableTracksArtists = "tracks_artists"
	tableTracksAlbums  = "tracks_albums"
	tableRoles         = "roles"
	tableImportRuns    = "import_runs"
)

// RolePrimary is the role of the artist credited on the track itself
const RolePrimary int64 = 1

// Schema v1 - library tables.
// Natural keys carry UNIQUE constraints so find-or-create can fall back
// to an atomic insert-or-fetch.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS genre (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS artists (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS albums (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL UNIQUE,
  year INTEGER,
  artist_id INTEGER REFERENCES artists(id)
);

CREATE TABLE IF NOT EXISTS tracks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  year INTEGER,
  playcount INTEGER NOT NULL DEFAULT 0,
  genre_id INTEGER REFERENCES genre(id)
);

CREATE INDEX IF NOT EXISTS idx_tracks_genre_id ON tracks(genre_id);
CREATE INDEX IF NOT EXISTS idx_tracks_year ON tracks(year);

CREATE TABLE IF NOT EXISTS roles (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

INSERT OR IGNORE INTO roles (id, name) VALUES (1, 'primary');

CREATE TABLE IF NOT EXISTS tracks_artists (
  track_id INTEGER NOT NULL REFERENCES tracks(id),
  artist_id INTEGER NOT NULL REFERENCES artists(id),
  role_id INTEGER NOT NULL REFERENCES roles(id),
  PRIMARY KEY (track_id, artist_id, role_id)
);

CREATE INDEX IF NOT EXISTS idx_tracks_artists_artist_id ON tracks_artists(artist_id);

CREATE TABLE IF NOT EXISTS tracks_albums (
  track_id INTEGER NOT NULL REFERENCES tracks(id),
  album_id INTEGER NOT NULL REFERENCES albums(id),
  track_number INTEGER,
  PRIMARY KEY (track_id, album_id)
);

CREATE INDEX IF NOT EXISTS idx_tracks_albums_album_id ON tracks_albums(album_id);
`

// Schema v2 - import run ledger
const schemaV2 = `
CREATE TABLE IF NOT EXISTS import_runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL UNIQUE,
  source_path TEXT NOT NULL,
  source_sha1 TEXT,
  status TEXT NOT NULL DEFAULT 'running',
  total INTEGER NOT NULL DEFAULT 0,
  imported INTEGER NOT NULL DEFAULT 0,
  skipped INTEGER NOT NULL DEFAULT 0,
  failed INTEGER NOT NULL DEFAULT 0,
  error TEXT,
  started_at INTEGER NOT NULL, -- unix milliseconds
  finished_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_import_runs_source_sha1 ON import_runs(source_sha1);
CREATE INDEX IF NOT EXISTS idx_import_runs_started_at ON import_runs(started_at);
`
