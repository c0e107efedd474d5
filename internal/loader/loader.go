// Package loader reads tag metadata from sound files and produces
// domain records for the library store and the playing queue.
package loader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"github.com/ldelacroix/muso/internal/music"
)

var soundExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".wav":  true,
}

// IsSoundFile reports whether the path has a supported audio
// extension.
func IsSoundFile(path string) bool {
	return soundExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadSong reads a file's tags into a Song. A file that cannot be
// opened or parsed still yields a Song carrying its path, with every
// tag absent; scan loops never have to handle a load error.
func LoadSong(path string) *music.Song {
	f, err := os.Open(path)
	if err != nil {
		return &music.Song{Path: path}
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return &music.Song{Path: path}
	}

	track, totalTracks := m.Track()
	disk, totalDisks := m.Disc()

	albumArtist := m.AlbumArtist()
	if albumArtist == "" {
		albumArtist = m.Artist()
	}

	return &music.Song{
		Meta: music.Meta{
			Title:   m.Title(),
			Year:    m.Year(),
			Artists: splitNames(m.Artist()),
			Genres:  splitNames(m.Genre()),
		},
		Path:  path,
		Track: track,
		Disk:  disk,
		Album: music.Album{
			Meta: music.Meta{
				Title:   m.Album(),
				Year:    m.Year(),
				Artists: splitNames(albumArtist),
			},
			TotalTracks: totalTracks,
			TotalDisks:  totalDisks,
		},
	}
}

// LoadAlbum reads every sound file directly inside dir into a single
// Album, its songs ordered by disk then track then path. The album
// metadata comes from the first song that carries any.
func LoadAlbum(dir string) (*music.Album, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var songs []music.Song
	for _, entry := range entries {
		if entry.IsDir() || !IsSoundFile(entry.Name()) {
			continue
		}
		songs = append(songs, *LoadSong(filepath.Join(dir, entry.Name())))
	}

	sort.Slice(songs, func(i, j int) bool {
		if songs[i].Disk != songs[j].Disk {
			return songs[i].Disk < songs[j].Disk
		}
		if songs[i].Track != songs[j].Track {
			return songs[i].Track < songs[j].Track
		}
		return songs[i].Path < songs[j].Path
	})

	album := &music.Album{}
	for i := range songs {
		if songs[i].Album.Title != "" || len(songs[i].Album.Artists) > 0 {
			*album = songs[i].Album
			break
		}
	}
	album.Songs = songs
	return album, nil
}

// splitNames turns a multi-valued tag ("A; B" or "A / B") into a name
// set.
func splitNames(joined string) []string {
	if joined == "" {
		return nil
	}

	parts := strings.FieldsFunc(joined, func(r rune) bool {
		return r == ';' || r == '/'
	})

	var names []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
