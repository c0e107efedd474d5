package library

import (
	"database/sql"
	"errors"
	"fmt"

	dbutil "github.com/ldelacroix/muso/internal/db"
	"github.com/ldelacroix/muso/internal/music"
)

// AddSong writes a song to the library. The song's album is resolved
// through the serialized resolver first; the remainder of the write
// (song row, artist/genre links) then runs in its own transaction and
// may interleave with other songs' writes.
//
// Re-adding an existing path updates the row in place: the surrogate
// id is preserved and the artist/genre link sets are rewritten to
// match the new song, so no links are left behind under a stale id.
func (l *Library) AddSong(song music.Song) error {
	album, err := l.resolveAlbum(song.Album)
	if err != nil {
		return fmt.Errorf("resolve album for %s: %w", song.Path, err)
	}
	if album == nil {
		return fmt.Errorf("resolve album for %s: no row", song.Path)
	}

	return dbutil.WithTx(l.db, func(tx *sql.Tx) error {
		if err := ensureNames(tx, "artist", song.Artists); err != nil {
			return err
		}
		if err := ensureNames(tx, "genre", song.Genres); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO song (path, title, year, track, disk, duration, rating, album_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				title = excluded.title,
				year = excluded.year,
				track = excluded.track,
				disk = excluded.disk,
				duration = excluded.duration,
				rating = excluded.rating,
				album_id = excluded.album_id
		`, song.Path, dbutil.NullString(song.Title), dbutil.NullInt(song.Year),
			dbutil.NullInt(song.Track), dbutil.NullInt(song.Disk),
			dbutil.NullFloat(song.Duration), dbutil.NullInt(song.Rating), album.ID)
		if err != nil {
			return fmt.Errorf("upsert song %s: %w", song.Path, err)
		}

		var id int64
		if err := tx.QueryRow(`SELECT id FROM song WHERE path = ?`, song.Path).Scan(&id); err != nil {
			return fmt.Errorf("song id for %s: %w", song.Path, err)
		}

		// Rewrite the link sets so a replaced song does not keep tags
		// from its previous version.
		if _, err := tx.Exec(`DELETE FROM song_artist WHERE song_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM song_genre WHERE song_id = ?`, id); err != nil {
			return err
		}
		if err := linkNames(tx, "song_artist", "song_id", "artist_name", id, song.Artists); err != nil {
			return err
		}
		return linkNames(tx, "song_genre", "song_id", "genre_name", id, song.Genres)
	})
}

// GetSong fetches a song by its path, with its artist set, genre set
// and album hydrated. Returns nil if no song is stored at that path.
func (l *Library) GetSong(path string) (*music.Song, error) {
	row := l.db.QueryRow(`
		SELECT id, path, title, year, track, disk, duration, rating, album_id
		FROM song
		WHERE path = ?
	`, path)

	var s music.Song
	var title sql.NullString
	var year, track, disk, rating, albumID sql.NullInt64
	var duration sql.NullFloat64

	err := row.Scan(&s.ID, &s.Path, &title, &year, &track, &disk, &duration, &rating, &albumID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get song %s: %w", path, err)
	}
	s.Title = dbutil.StringValue(title)
	s.Year = dbutil.IntValue(year)
	s.Track = dbutil.IntValue(track)
	s.Disk = dbutil.IntValue(disk)
	s.Duration = dbutil.FloatValue(duration)
	s.Rating = dbutil.IntValue(rating)

	if s.Artists, err = linkedNames(l.db, "song_artist", "song_id", "artist_name", s.ID); err != nil {
		return nil, err
	}
	if s.Genres, err = linkedNames(l.db, "song_genre", "song_id", "genre_name", s.ID); err != nil {
		return nil, err
	}

	if albumID.Valid {
		album, err := l.albumByID(l.db, albumID.Int64)
		if err != nil {
			return nil, err
		}
		if album != nil {
			s.Album = *album
		}
	}
	return &s, nil
}

// SongPaths returns the paths of all stored songs. Full records are
// re-hydrated lazily by callers through GetSong.
func (l *Library) SongPaths() ([]string, error) {
	rows, err := l.db.Query(`SELECT path FROM song ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// SongCount returns the number of stored songs.
func (l *Library) SongCount() (int, error) {
	var count int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM song`).Scan(&count)
	return count, err
}
