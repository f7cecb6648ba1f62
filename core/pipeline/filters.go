package pipeline

import "sync"

// FilterSelection holds the process-wide genre/artist filter choice. The
// values are read (snapshotted) at submission time and stamped onto every
// tracking record created during that submission; changing them later never
// rewrites an existing record.
type FilterSelection struct {
	mu     sync.RWMutex
	genre  string
	artist string
}

// NewFilterSelection creates a selection with both filters at "all".
func NewFilterSelection() *FilterSelection {
	return &FilterSelection{genre: "all", artist: "all"}
}

// Set replaces the selection. Empty values reset to "all".
func (f *FilterSelection) Set(genre, artist string) {
	if genre == "" {
		genre = "all"
	}
	if artist == "" {
		artist = "all"
	}
	f.mu.Lock()
	f.genre = genre
	f.artist = artist
	f.mu.Unlock()
}

// Snapshot returns the current genre and artist filter values.
func (f *FilterSelection) Snapshot() (genre, artist string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.genre, f.artist
}
