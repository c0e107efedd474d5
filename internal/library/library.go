// Package library owns the normalized music library schema and its
// lookup/insert/merge operations. Album resolution is serialized
// through a single worker so that concurrent song inserts for the
// same album cannot create duplicate album rows.
package library

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "muso"
	dbFileName = "muso.db"
)

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type Library struct {
	db *sql.DB

	resolve   chan resolveRequest
	done      chan struct{}
	closeOnce sync.Once
}

// Open opens (or creates) the library database at path and starts the
// album resolver. An empty path uses the default XDG data location.
func Open(path string) (*Library, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL mode allows concurrent reads during writes; SQLite supports
	// one writer at a time, so constrain the pool accordingly.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, err
		}
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	lib, err := New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return lib, nil
}

// New wraps an already opened database connection, creates the schema
// if needed and starts the album resolver. The library takes ownership
// of the connection and closes it in Close.
func New(conn *sql.DB) (*Library, error) {
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, err
	}
	if err := initSchema(conn); err != nil {
		return nil, err
	}

	l := &Library{db: conn}
	l.startResolver()
	return l, nil
}

// Close stops the album resolver and closes the database.
// The library must not be used after Close.
func (l *Library) Close() error {
	l.closeOnce.Do(func() {
		close(l.resolve)
		<-l.done
	})
	return l.db.Close()
}

// DefaultPath returns the XDG data location of the library database.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

func initSchema(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS song (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			title TEXT,
			year INTEGER,
			track INTEGER,
			disk INTEGER,
			duration REAL,
			rating INTEGER,
			album_id INTEGER REFERENCES album(id)
		);
		CREATE TABLE IF NOT EXISTS album (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT,
			year INTEGER,
			total_tracks INTEGER,
			total_disks INTEGER,
			rating INTEGER
		);
		CREATE TABLE IF NOT EXISTS artist (
			name TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS genre (
			name TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS song_artist (
			song_id INTEGER NOT NULL REFERENCES song(id) ON DELETE CASCADE,
			artist_name TEXT NOT NULL REFERENCES artist(name) ON DELETE CASCADE,
			PRIMARY KEY (song_id, artist_name)
		);
		CREATE TABLE IF NOT EXISTS song_genre (
			song_id INTEGER NOT NULL REFERENCES song(id) ON DELETE CASCADE,
			genre_name TEXT NOT NULL REFERENCES genre(name) ON DELETE CASCADE,
			PRIMARY KEY (song_id, genre_name)
		);
		CREATE TABLE IF NOT EXISTS album_artist (
			album_id INTEGER NOT NULL REFERENCES album(id) ON DELETE CASCADE,
			artist_name TEXT NOT NULL REFERENCES artist(name) ON DELETE CASCADE,
			PRIMARY KEY (album_id, artist_name)
		);
		CREATE TABLE IF NOT EXISTS album_genre (
			album_id INTEGER NOT NULL REFERENCES album(id) ON DELETE CASCADE,
			genre_name TEXT NOT NULL REFERENCES genre(name) ON DELETE CASCADE,
			PRIMARY KEY (album_id, genre_name)
		);
	`)
	return err
}
