package library

import (
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ldelacroix/muso/internal/music"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A single connection keeps the in-memory database shared.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	lib, err := New(conn)
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })
	return lib
}

func TestGetAlbum_NotFound(t *testing.T) {
	lib := openTestLibrary(t)

	album, err := lib.GetAlbum(music.Album{
		Meta: music.Meta{Title: "randomTitle", Artists: []string{"randomArtist"}},
	})
	require.NoError(t, err)
	require.Nil(t, album)
}

func TestAddAlbum_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		album music.Album
	}{
		{
			name:  "no title no artists",
			album: music.Album{},
		},
		{
			name:  "title only",
			album: music.Album{Meta: music.Meta{Title: "Album Title"}},
		},
		{
			name: "one artist",
			album: music.Album{
				Meta: music.Meta{Title: "Album Title 2", Artists: []string{"Artist"}},
			},
		},
		{
			name: "multiple artists and genres",
			album: music.Album{
				Meta: music.Meta{
					Title:   "Multi-artist title",
					Artists: []string{"Artist1", "Artist2", "Artist3"},
					Genres:  []string{"rock", "hard rock"},
				},
				TotalTracks: 10,
				TotalDisks:  2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := openTestLibrary(t)

			id, err := lib.AddAlbum(tt.album)
			require.NoError(t, err)
			require.NotZero(t, id)

			got, err := lib.GetAlbum(tt.album)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, id, got.ID)
			require.Equal(t, tt.album.Title, got.Title)
			require.Equal(t, tt.album.TotalTracks, got.TotalTracks)
			require.Equal(t, tt.album.TotalDisks, got.TotalDisks)
			require.ElementsMatch(t, tt.album.Artists, got.Artists)
			require.ElementsMatch(t, tt.album.Genres, got.Genres)
		})
	}
}

func TestGetOrAddAlbum_DedupesIdenticalAlbum(t *testing.T) {
	lib := openTestLibrary(t)

	album := music.Album{Meta: music.Meta{Title: "DUPE TITLE", Artists: []string{"Artist"}}}

	_, err := lib.AddAlbum(album)
	require.NoError(t, err)

	original, err := lib.GetAlbum(album)
	require.NoError(t, err)
	require.NotNil(t, original)

	resolved, err := lib.GetOrAddAlbum(music.Album{
		Meta: music.Meta{Title: album.Title, Artists: album.Artists},
	})
	require.NoError(t, err)
	require.Equal(t, original.ID, resolved.ID)
}

func TestGetOrAddAlbum_DisjointArtistsStayDistinct(t *testing.T) {
	lib := openTestLibrary(t)

	album := music.Album{Meta: music.Meta{Title: "DUPE TITLE MULTI", Artists: []string{"Artist1"}}}

	_, err := lib.AddAlbum(album)
	require.NoError(t, err)

	original, err := lib.GetAlbum(album)
	require.NoError(t, err)
	require.NotNil(t, original)

	resolved, err := lib.GetOrAddAlbum(music.Album{
		Meta: music.Meta{Title: album.Title, Artists: []string{"Artist2"}},
	})
	require.NoError(t, err)
	require.NotEqual(t, original.ID, resolved.ID)
}

func TestGetOrAddAlbum_ConcurrentSingleRow(t *testing.T) {
	lib := openTestLibrary(t)

	album := music.Album{Meta: music.Meta{Title: "Racy Album", Artists: []string{"Artist"}}}

	const writers = 16
	ids := make([]int64, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolved, err := lib.GetOrAddAlbum(album)
			if err != nil {
				t.Errorf("GetOrAddAlbum: %v", err)
				return
			}
			ids[i] = resolved.ID
		}()
	}
	wg.Wait()

	for i := 1; i < writers; i++ {
		require.Equal(t, ids[0], ids[i], "all resolutions should yield one album row")
	}

	var count int
	err := lib.db.QueryRow(
		`SELECT COUNT(*) FROM album WHERE title = ?`, album.Title,
	).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestAddSong_MinimalRecord(t *testing.T) {
	lib := openTestLibrary(t)

	const path = "test/path.mp3"
	require.NoError(t, lib.AddSong(music.Song{Path: path}))

	got, err := lib.GetSong(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, path, got.Path)
}

func TestAddSong_RoundTripsFields(t *testing.T) {
	lib := openTestLibrary(t)

	song := music.Song{
		Meta:     music.Meta{Title: "Title", Year: 2019},
		Path:     "test/path.wav",
		Track:    1,
		Disk:     1,
		Duration: 47,
	}
	require.NoError(t, lib.AddSong(song))

	got, err := lib.GetSong(song.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, song.Path, got.Path)
	require.Equal(t, song.Title, got.Title)
	require.Equal(t, song.Year, got.Year)
	require.Equal(t, song.Track, got.Track)
	require.Equal(t, song.Disk, got.Disk)
	require.Equal(t, song.Duration, got.Duration)
}

func TestAddSong_GenreSetUnordered(t *testing.T) {
	lib := openTestLibrary(t)

	song := music.Song{
		Meta: music.Meta{Genres: []string{"genre1", "genre2"}},
		Path: "test/path2.wav",
	}
	require.NoError(t, lib.AddSong(song))

	got, err := lib.GetSong(song.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.ElementsMatch(t, song.Genres, got.Genres)
}

func TestAddSong_ArtistSet(t *testing.T) {
	lib := openTestLibrary(t)

	song := music.Song{
		Meta: music.Meta{Artists: []string{"artist1", "artist2", "artist3"}},
		Path: "test/path3.wav",
	}
	require.NoError(t, lib.AddSong(song))

	got, err := lib.GetSong(song.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.ElementsMatch(t, song.Artists, got.Artists)
}

func TestAddSong_ReplaceOverwritesInPlace(t *testing.T) {
	lib := openTestLibrary(t)

	const path = "path/to/song.flac"
	first := music.Song{
		Meta:  music.Meta{Artists: []string{"old artist"}},
		Path:  path,
		Disk:  1,
		Track: 1,
	}
	require.NoError(t, lib.AddSong(first))

	got1, err := lib.GetSong(path)
	require.NoError(t, err)
	require.NotNil(t, got1)
	require.Equal(t, 1, got1.Disk)
	require.Equal(t, 1, got1.Track)
	require.Zero(t, got1.Duration)

	second := music.Song{
		Meta:     music.Meta{Artists: []string{"new artist"}},
		Path:     path,
		Disk:     2,
		Track:    3,
		Duration: 32,
	}
	require.NoError(t, lib.AddSong(second))

	got2, err := lib.GetSong(path)
	require.NoError(t, err)
	require.NotNil(t, got2)
	require.Equal(t, 2, got2.Disk)
	require.Equal(t, 3, got2.Track)
	require.Equal(t, float64(32), got2.Duration)

	// Upsert keeps the surrogate id and rewrites the link sets.
	require.Equal(t, got1.ID, got2.ID)
	require.Equal(t, []string{"new artist"}, got2.Artists)

	var orphans int
	err = lib.db.QueryRow(`
		SELECT COUNT(*) FROM song_artist
		WHERE song_id NOT IN (SELECT id FROM song)
	`).Scan(&orphans)
	require.NoError(t, err)
	require.Zero(t, orphans)
}

func TestAddSong_WithAlbum(t *testing.T) {
	lib := openTestLibrary(t)

	const path = "test/with_album.mp3"
	song := music.Song{
		Path: path,
		Album: music.Album{
			Meta: music.Meta{Title: "Title123", Artists: []string{"Artist1"}},
		},
	}
	require.NoError(t, lib.AddSong(song))

	got, err := lib.GetSong(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, song.Album.Title, got.Album.Title)
	require.ElementsMatch(t, song.Album.Artists, got.Album.Artists)
	require.NotZero(t, got.Album.ID)
}

func TestAddSong_SharedAlbum(t *testing.T) {
	lib := openTestLibrary(t)

	album := music.Album{Meta: music.Meta{Title: "Shared", Artists: []string{"Band"}}}
	require.NoError(t, lib.AddSong(music.Song{Path: "a/1.flac", Track: 1, Album: album}))
	require.NoError(t, lib.AddSong(music.Song{Path: "a/2.flac", Track: 2, Album: album}))

	s1, err := lib.GetSong("a/1.flac")
	require.NoError(t, err)
	s2, err := lib.GetSong("a/2.flac")
	require.NoError(t, err)
	require.Equal(t, s1.Album.ID, s2.Album.ID)
}

func TestGetSong_NotFound(t *testing.T) {
	lib := openTestLibrary(t)

	got, err := lib.GetSong("no/such/file.mp3")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestAddArtistAndGenre_Idempotent(t *testing.T) {
	lib := openTestLibrary(t)

	require.NoError(t, lib.AddArtist("Artist"))
	require.NoError(t, lib.AddArtist("Artist"))
	require.NoError(t, lib.AddGenre("jazz"))
	require.NoError(t, lib.AddGenre("jazz"))

	var artists, genres int
	require.NoError(t, lib.db.QueryRow(`SELECT COUNT(*) FROM artist`).Scan(&artists))
	require.NoError(t, lib.db.QueryRow(`SELECT COUNT(*) FROM genre`).Scan(&genres))
	require.Equal(t, 1, artists)
	require.Equal(t, 1, genres)
}

func TestSongPaths(t *testing.T) {
	lib := openTestLibrary(t)

	require.NoError(t, lib.AddSong(music.Song{Path: "b.mp3"}))
	require.NoError(t, lib.AddSong(music.Song{Path: "a.mp3"}))

	paths, err := lib.SongPaths()
	require.NoError(t, err)
	require.Equal(t, []string{"a.mp3", "b.mp3"}, paths)

	count, err := lib.SongCount()
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
