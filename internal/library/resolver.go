package library

import (
	"github.com/ldelacroix/muso/internal/music"
)

// Album resolution is the one place that needs an ordering guarantee:
// two concurrent AddSong calls for the same logical album must not
// both observe "absent" and insert duplicate rows. All get-or-add
// requests go through a single channel consumed by one worker, in
// submission order.

type resolveRequest struct {
	album music.Album
	reply chan resolveResult
}

type resolveResult struct {
	album *music.Album
	err   error
}

func (l *Library) startResolver() {
	l.resolve = make(chan resolveRequest)
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		for req := range l.resolve {
			album, err := l.getOrAddAlbum(req.album)
			// A failed resolution is reported to its submitter only;
			// the worker moves on to the next queued request.
			req.reply <- resolveResult{album: album, err: err}
		}
	}()
}

// resolveAlbum submits an album to the resolver worker and waits for
// the resolved row (with its final id).
func (l *Library) resolveAlbum(album music.Album) (*music.Album, error) {
	reply := make(chan resolveResult, 1)
	l.resolve <- resolveRequest{album: album, reply: reply}
	res := <-reply
	return res.album, res.err
}
