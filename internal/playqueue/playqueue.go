// Package playqueue maintains the ordered list of songs driving
// playback, with a movable cursor supporting circular navigation and
// direct jumps.
package playqueue

import (
	"github.com/ldelacroix/muso/internal/music"
)

// Queue holds song handles in insertion order with one cursor.
// Entries are identified by handle, not value: the same song value
// added twice yields two distinct, independently jumpable entries.
//
// All operations are synchronous and expected to run on the caller's
// event loop; the queue does no locking of its own.
type Queue struct {
	songs    []*music.Song
	position map[*music.Song]int
	current  int // -1 when empty
	onJump   func(*music.Song)
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		position: make(map[*music.Song]int),
		current:  -1,
	}
}

// OnJump registers a listener notified when ChangeSong moves the
// cursor.
func (q *Queue) OnJump(fn func(*music.Song)) {
	q.onJump = fn
}

// AddSong appends a song to the tail. The first song added becomes the
// current one.
func (q *Queue) AddSong(song *music.Song) {
	q.position[song] = len(q.songs)
	q.songs = append(q.songs, song)

	if q.current < 0 {
		q.current = 0
	}
}

// AddAlbum appends every song of the album, in album order.
func (q *Queue) AddAlbum(album *music.Album) {
	for i := range album.Songs {
		q.AddSong(&album.Songs[i])
	}
}

// Current returns the song at the cursor, or nil if the queue is
// empty.
func (q *Queue) Current() *music.Song {
	if q.current < 0 {
		return nil
	}
	return q.songs[q.current]
}

// Next advances the cursor, wrapping from the tail to the head, and
// returns the new current song. Returns nil only when empty.
func (q *Queue) Next() *music.Song {
	if q.current < 0 {
		return nil
	}
	q.current = (q.current + 1) % len(q.songs)
	return q.songs[q.current]
}

// Previous moves the cursor back, wrapping from the head to the tail,
// and returns the new current song. Returns nil only when empty.
func (q *Queue) Previous() *music.Song {
	if q.current < 0 {
		return nil
	}
	q.current = (q.current - 1 + len(q.songs)) % len(q.songs)
	return q.songs[q.current]
}

// HasNext reports whether a song follows the current one without
// wrapping around; it is false exactly when the cursor is at the tail
// (or the queue is empty).
func (q *Queue) HasNext() bool {
	return q.current >= 0 && q.current < len(q.songs)-1
}

// ChangeSong moves the cursor directly to the given handle and
// notifies the jump listener. Unknown handles are ignored.
func (q *Queue) ChangeSong(song *music.Song) {
	pos, ok := q.position[song]
	if !ok {
		return
	}
	q.current = pos
	if q.onJump != nil {
		q.onJump(song)
	}
}

// SongCount returns the number of entries in the queue.
func (q *Queue) SongCount() int {
	return len(q.songs)
}

// AllSongs returns a snapshot of all entries in insertion order.
func (q *Queue) AllSongs() []*music.Song {
	out := make([]*music.Song, len(q.songs))
	copy(out, q.songs)
	return out
}
