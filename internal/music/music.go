// Package music holds the domain records shared by the library store,
// the loader and the playing queue.
package music

// Meta contains the metadata fields common to songs and albums.
// Zero values mean the tag was absent from the source file; the store
// persists them as NULL.
type Meta struct {
	Title   string
	Year    int
	Rating  int
	Artists []string
	Genres  []string
}

// Song is a single music file. Path is the natural key; ID is the
// surrogate key assigned by the store on insert (0 before that).
type Song struct {
	Meta

	ID       int64
	Path     string
	Track    int
	Disk     int
	Duration float64 // seconds
	Album    Album
}

// Album groups songs. Songs is only populated by the loader when a
// whole directory is read; the store links songs by album id instead.
type Album struct {
	Meta

	ID          int64
	TotalTracks int
	TotalDisks  int
	Songs       []Song
}

// HasArtist reports whether name is in the artist set.
func (m *Meta) HasArtist(name string) bool {
	for _, a := range m.Artists {
		if a == name {
			return true
		}
	}
	return false
}

// HasGenre reports whether name is in the genre set.
func (m *Meta) HasGenre(name string) bool {
	for _, g := range m.Genres {
		if g == name {
			return true
		}
	}
	return false
}
