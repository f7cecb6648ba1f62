package model

import "time"

// KaraokeTrack represents a backing track in the karaoke catalog.
type KaraokeTrack struct {
	ID        string    `json:"id"`
	SongName  string    `json:"songName"`
	Artist    string    `json:"artist"`
	Genre     string    `json:"genre"`
	Lyrics    string    `json:"lyrics,omitempty"`
	AudioPath string    `json:"audioPath"` // Object key of the backing track in MinIO
	Duration  float32   `json:"duration"`  // Duration in seconds
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TrackPage is one page of the catalog listing.
type TrackPage struct {
	Tracks  []*KaraokeTrack `json:"tracks"`
	Total   int             `json:"total"`
	HasMore bool            `json:"hasMore"`
}
