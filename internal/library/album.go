package library

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	dbutil "github.com/ldelacroix/muso/internal/db"
	"github.com/ldelacroix/muso/internal/music"
)

// AddArtist inserts an artist if absent. Adding an existing artist is
// a no-op.
func (l *Library) AddArtist(name string) error {
	return ensureNames(l.db, "artist", []string{name})
}

// AddGenre inserts a genre if absent. Adding an existing genre is a
// no-op.
func (l *Library) AddGenre(name string) error {
	return ensureNames(l.db, "genre", []string{name})
}

// GetAlbum returns the stored album matching the given one, or nil if
// no row matches. An album with an id is fetched directly; otherwise
// the lookup uses the logical album identity: title equality (or no
// title) plus an overlapping artist set (or no artists at all).
// Ties are broken deterministically by lowest id.
func (l *Library) GetAlbum(album music.Album) (*music.Album, error) {
	if album.ID != 0 {
		return l.albumByID(l.db, album.ID)
	}

	conds := make([]string, 0, 2)
	var args []any

	if album.Title != "" {
		conds = append(conds, "title = ?")
		args = append(args, album.Title)
	} else {
		conds = append(conds, "title IS NULL")
	}

	if len(album.Artists) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(album.Artists)), ",")
		conds = append(conds, fmt.Sprintf(
			"id IN (SELECT album_id FROM album_artist WHERE artist_name IN (%s))", placeholders))
		for _, artist := range album.Artists {
			args = append(args, artist)
		}
	} else {
		conds = append(conds, "id NOT IN (SELECT album_id FROM album_artist)")
	}

	var id int64
	err := l.db.QueryRow(
		`SELECT id FROM album WHERE `+strings.Join(conds, " AND ")+` ORDER BY id LIMIT 1`,
		args...,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find album: %w", err)
	}
	return l.albumByID(l.db, id)
}

// AddAlbum unconditionally inserts an album row with its artist and
// genre links and returns the generated id. Callers that want
// deduplication go through GetOrAddAlbum instead.
func (l *Library) AddAlbum(album music.Album) (int64, error) {
	var id int64
	err := dbutil.WithTx(l.db, func(tx *sql.Tx) error {
		var err error
		id, err = addAlbum(tx, album)
		return err
	})
	return id, err
}

func addAlbum(ex executor, album music.Album) (int64, error) {
	if err := ensureNames(ex, "artist", album.Artists); err != nil {
		return 0, err
	}
	if err := ensureNames(ex, "genre", album.Genres); err != nil {
		return 0, err
	}

	res, err := ex.Exec(`
		INSERT INTO album (title, year, total_tracks, total_disks, rating)
		VALUES (?, ?, ?, ?, ?)
	`, dbutil.NullString(album.Title), dbutil.NullInt(album.Year),
		dbutil.NullInt(album.TotalTracks), dbutil.NullInt(album.TotalDisks),
		dbutil.NullInt(album.Rating))
	if err != nil {
		return 0, fmt.Errorf("insert album: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := linkNames(ex, "album_artist", "album_id", "artist_name", id, album.Artists); err != nil {
		return 0, err
	}
	if err := linkNames(ex, "album_genre", "album_id", "genre_name", id, album.Genres); err != nil {
		return 0, err
	}
	return id, nil
}

// GetOrAddAlbum resolves an album to its stored row, inserting it
// first if absent. The request is processed by the resolver worker,
// strictly one at a time in submission order.
func (l *Library) GetOrAddAlbum(album music.Album) (*music.Album, error) {
	return l.resolveAlbum(album)
}

// getOrAddAlbum is the worker-side implementation. Only the resolver
// goroutine may call it.
func (l *Library) getOrAddAlbum(album music.Album) (*music.Album, error) {
	existing, err := l.GetAlbum(album)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id, err := l.AddAlbum(album)
	if err != nil {
		return nil, err
	}
	return l.albumByID(l.db, id)
}

func (l *Library) albumByID(ex executor, id int64) (*music.Album, error) {
	row := ex.QueryRow(`
		SELECT id, title, year, total_tracks, total_disks, rating
		FROM album
		WHERE id = ?
	`, id)

	var a music.Album
	var title sql.NullString
	var year, totalTracks, totalDisks, rating sql.NullInt64

	err := row.Scan(&a.ID, &title, &year, &totalTracks, &totalDisks, &rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get album %d: %w", id, err)
	}
	a.Title = dbutil.StringValue(title)
	a.Year = dbutil.IntValue(year)
	a.TotalTracks = dbutil.IntValue(totalTracks)
	a.TotalDisks = dbutil.IntValue(totalDisks)
	a.Rating = dbutil.IntValue(rating)

	if a.Artists, err = linkedNames(ex, "album_artist", "album_id", "artist_name", id); err != nil {
		return nil, err
	}
	if a.Genres, err = linkedNames(ex, "album_genre", "album_id", "genre_name", id); err != nil {
		return nil, err
	}
	return &a, nil
}

// ensureNames idempotently inserts rows into a name-keyed table
// (artist or genre).
func ensureNames(ex executor, table string, names []string) error {
	for _, name := range names {
		if _, err := ex.Exec(`INSERT OR IGNORE INTO `+table+` (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("ensure %s %q: %w", table, name, err)
		}
	}
	return nil
}

// linkNames inserts association rows. Links are a set: duplicate
// inserts are a no-op.
func linkNames(ex executor, table, idCol, nameCol string, id int64, names []string) error {
	for _, name := range names {
		_, err := ex.Exec(
			`INSERT OR IGNORE INTO `+table+` (`+idCol+`, `+nameCol+`) VALUES (?, ?)`,
			id, name)
		if err != nil {
			return fmt.Errorf("link %s %q: %w", table, name, err)
		}
	}
	return nil
}

// linkedNames loads the name set associated with an entity, in stable
// order.
func linkedNames(ex executor, table, idCol, nameCol string, id int64) ([]string, error) {
	rows, err := ex.Query(
		`SELECT `+nameCol+` FROM `+table+` WHERE `+idCol+` = ? ORDER BY `+nameCol, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
