package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lissants/berkaraoke/model"

	"github.com/google/uuid"
)

// RecordingRepository defines the interface for recording submission documents.
type RecordingRepository interface {
	// Create persists a new recording document. If rec.ID is empty a unique
	// ID is assigned. Returns the stored ID.
	Create(rec *model.Recording) (string, error)
	GetByID(id string) (*model.Recording, error)
	ListByUser(userID int64) ([]*model.Recording, error)
}

// mysqlRecordingRepository implements RecordingRepository for MySQL.
type mysqlRecordingRepository struct {
	DB *sql.DB
}

// NewMySQLRecordingRepository creates a new instance of mysqlRecordingRepository.
func NewMySQLRecordingRepository(db *sql.DB) RecordingRepository {
	return &mysqlRecordingRepository{DB: db}
}

const recordingColumns = `id, user_id, file_ids, file_id, processing_status, recording_date,
	genre_filter, artist_filter, recommendations, performance_data, accuracy_score,
	child_documents, is_master_document`

// Create persists a new recording document.
func (r *mysqlRecordingRepository) Create(rec *model.Recording) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.RecordingDate.IsZero() {
		rec.RecordingDate = time.Now()
	}

	fileIDs, err := marshalList(rec.FileIDs)
	if err != nil {
		return "", fmt.Errorf("failed to encode fileIds: %w", err)
	}
	recommendations, err := marshalList(rec.Recommendations)
	if err != nil {
		return "", fmt.Errorf("failed to encode recommendations: %w", err)
	}
	performanceData, err := marshalList(rec.PerformanceData)
	if err != nil {
		return "", fmt.Errorf("failed to encode performanceData: %w", err)
	}
	childDocs, err := marshalList(rec.ChildDocuments)
	if err != nil {
		return "", fmt.Errorf("failed to encode childDocuments: %w", err)
	}

	query := `INSERT INTO user_karaoke_tracks (` + recordingColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement for Create recording: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(rec.ID, rec.UserID, fileIDs, rec.FileID, rec.ProcessingStatus,
		rec.RecordingDate, rec.GenreFilter, rec.ArtistFilter, recommendations,
		performanceData, rec.AccuracyScore, childDocs, rec.IsMasterDocument)
	if err != nil {
		return "", fmt.Errorf("failed to execute Create recording: %w", err)
	}

	return rec.ID, nil
}

// GetByID retrieves a recording document by its ID.
func (r *mysqlRecordingRepository) GetByID(id string) (*model.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM user_karaoke_tracks WHERE id = ?`
	rec, err := scanRecording(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recording %s: %w", id, err)
	}
	return rec, nil
}

// ListByUser retrieves all recording documents for a user, newest first.
func (r *mysqlRecordingRepository) ListByUser(userID int64) ([]*model.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM user_karaoke_tracks
	           WHERE user_id = ? ORDER BY recording_date DESC`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recordings for user %d: %w", userID, err)
	}
	defer rows.Close()

	var recs []*model.Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recording row: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recording rows: %w", err)
	}
	return recs, nil
}

func scanRecording(s rowScanner) (*model.Recording, error) {
	rec := &model.Recording{}
	var fileIDs, recommendations, performanceData, childDocs sql.NullString

	err := s.Scan(&rec.ID, &rec.UserID, &fileIDs, &rec.FileID, &rec.ProcessingStatus,
		&rec.RecordingDate, &rec.GenreFilter, &rec.ArtistFilter, &recommendations,
		&performanceData, &rec.AccuracyScore, &childDocs, &rec.IsMasterDocument)
	if err != nil {
		return nil, err
	}

	if rec.FileIDs, err = unmarshalList(fileIDs); err != nil {
		return nil, fmt.Errorf("failed to decode fileIds for %s: %w", rec.ID, err)
	}
	if rec.Recommendations, err = unmarshalList(recommendations); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations for %s: %w", rec.ID, err)
	}
	if rec.PerformanceData, err = unmarshalList(performanceData); err != nil {
		return nil, fmt.Errorf("failed to decode performanceData for %s: %w", rec.ID, err)
	}
	if rec.ChildDocuments, err = unmarshalList(childDocs); err != nil {
		return nil, fmt.Errorf("failed to decode childDocuments for %s: %w", rec.ID, err)
	}
	return rec, nil
}

func marshalList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalList(value sql.NullString) ([]string, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(value.String), &values); err != nil {
		return nil, err
	}
	return values, nil
}
