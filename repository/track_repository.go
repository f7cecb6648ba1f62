package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lissants/berkaraoke/model"
)

// TrackRepository defines the interface for karaoke catalog operations.
type TrackRepository interface {
	GetTrackByID(id string) (*model.KaraokeTrack, error)
	GetTracksByIDs(ids []string) ([]*model.KaraokeTrack, error)
	GetAllTracks(limit, offset int) (*model.TrackPage, error)
	DistinctGenres() ([]string, error)
	DistinctArtists() ([]string, error)
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{DB: db}
}

const trackColumns = `id, song_name, artist, genre, lyrics, audio_path, duration, created_at, updated_at`

// GetTrackByID retrieves a track by its ID.
func (r *mysqlTrackRepository) GetTrackByID(id string) (*model.KaraokeTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM karaoke_tracks WHERE id = ?`
	row := r.DB.QueryRow(query, id)

	track, err := scanTrack(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get track %s: %w", id, err)
	}
	return track, nil
}

// GetTracksByIDs retrieves the tracks for the given IDs, preserving the input
// order. Missing IDs are skipped, not errors.
func (r *mysqlTrackRepository) GetTracksByIDs(ids []string) ([]*model.KaraokeTrack, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := `SELECT ` + trackColumns + ` FROM karaoke_tracks WHERE id IN (` + placeholders + `)`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*model.KaraokeTrack, len(ids))
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		byID[track.ID] = track
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate track rows: %w", err)
	}

	out := make([]*model.KaraokeTrack, 0, len(ids))
	for _, id := range ids {
		if track, ok := byID[id]; ok {
			out = append(out, track)
		}
	}
	return out, nil
}

// GetAllTracks lists the catalog ordered by song name with limit/offset paging.
func (r *mysqlTrackRepository) GetAllTracks(limit, offset int) (*model.TrackPage, error) {
	if limit <= 0 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM karaoke_tracks`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tracks: %w", err)
	}

	query := `SELECT ` + trackColumns + ` FROM karaoke_tracks ORDER BY song_name ASC LIMIT ? OFFSET ?`
	rows, err := r.DB.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*model.KaraokeTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate track rows: %w", err)
	}

	return &model.TrackPage{
		Tracks:  tracks,
		Total:   total,
		HasMore: offset+limit < total,
	}, nil
}

// DistinctGenres returns all genres present in the catalog, sorted.
func (r *mysqlTrackRepository) DistinctGenres() ([]string, error) {
	return r.distinctColumn("genre")
}

// DistinctArtists returns all artists present in the catalog, sorted.
func (r *mysqlTrackRepository) DistinctArtists() ([]string, error) {
	return r.distinctColumn("artist")
}

func (r *mysqlTrackRepository) distinctColumn(column string) ([]string, error) {
	// column is one of two fixed identifiers, never user input.
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM karaoke_tracks WHERE %s <> '' ORDER BY %s ASC`, column, column, column)
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", column, err)
	}
	return values, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(s rowScanner) (*model.KaraokeTrack, error) {
	track := &model.KaraokeTrack{}
	var lyrics sql.NullString
	err := s.Scan(&track.ID, &track.SongName, &track.Artist, &track.Genre, &lyrics,
		&track.AudioPath, &track.Duration, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	track.Lyrics = lyrics.String
	return track, nil
}
