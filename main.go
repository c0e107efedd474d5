package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ldelacroix/muso/internal/config"
	"github.com/ldelacroix/muso/internal/library"
	"github.com/ldelacroix/muso/internal/loader"
)

const numWorkers = 8

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	lib, err := library.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	switch args[0] {
	case "scan":
		dirs := args[1:]
		if len(dirs) == 0 {
			dirs = cfg.LibrarySources
		}
		if len(dirs) == 0 {
			return fmt.Errorf("no directories to scan: pass them as arguments or set library_sources in config.toml")
		}
		return scan(lib, dirs)
	case "list":
		return list(lib)
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("show needs a song path")
		}
		return show(lib, args[1])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: muso <command>

commands:
  scan [dir ...]   scan directories into the library (default: library_sources)
  list             list stored songs
  show <path>      show one song`)
}

// scan walks the given directories and adds every sound file to the
// library. Files are loaded in parallel; album deduplication is
// handled by the store's resolver.
func scan(lib *library.Library, dirs []string) error {
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && loader.IsSoundFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", dir, err)
		}
	}

	log.Printf("Found %d sound files", len(files))

	workCh := make(chan string, len(files))
	var added, failed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range workCh {
				song := loader.LoadSong(path)
				if err := lib.AddSong(*song); err != nil {
					log.Printf("Error adding %s: %v", path, err)
					failed.Add(1)
					continue
				}
				added.Add(1)
			}
		}()
	}

	for _, f := range files {
		workCh <- f
	}
	close(workCh)
	wg.Wait()

	log.Printf("Added %d songs (%d failed)", added.Load(), failed.Load())
	return nil
}

func list(lib *library.Library) error {
	paths, err := lib.SongPaths()
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println(path)
	}

	count, err := lib.SongCount()
	if err != nil {
		return err
	}
	log.Printf("%d songs in library", count)
	return nil
}

func show(lib *library.Library, path string) error {
	song, err := lib.GetSong(path)
	if err != nil {
		return err
	}
	if song == nil {
		return fmt.Errorf("no song stored at %s", path)
	}

	fmt.Printf("Path: %s\n", song.Path)
	if song.Title != "" {
		fmt.Printf("Title: %s\n", song.Title)
	}
	if len(song.Artists) > 0 {
		fmt.Printf("Artists: %v\n", song.Artists)
	}
	if len(song.Genres) > 0 {
		fmt.Printf("Genres: %v\n", song.Genres)
	}
	if song.Year > 0 {
		fmt.Printf("Year: %d\n", song.Year)
	}
	if song.Track > 0 {
		fmt.Printf("Track: %d\n", song.Track)
	}
	if song.Disk > 0 {
		fmt.Printf("Disk: %d\n", song.Disk)
	}
	if song.Album.Title != "" {
		fmt.Printf("Album: %s (id %d)\n", song.Album.Title, song.Album.ID)
	}
	return nil
}
