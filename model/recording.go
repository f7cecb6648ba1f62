package model

import "time"

// SubmissionStatus tracks one required song's progress through the
// capture-upload-submission pipeline.
type SubmissionStatus string

const (
	SubmissionNotStarted SubmissionStatus = "not_started"
	SubmissionUploading  SubmissionStatus = "uploading"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionFailed     SubmissionStatus = "failed"
)

// ProcessingPending is the status stamped on every freshly created recording
// document. The analysis service owns every later value.
const ProcessingPending = "pending"

// Artifact is a durably stored audio object. The identifier is assigned by the
// object store and is opaque; the file name exists for auditability only.
type Artifact struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	SongID   string `json:"songId"`
}

// Recording is a persisted document describing one recording submission, or,
// when IsMasterDocument is set, the joined submission covering all required
// songs.
type Recording struct {
	ID               string    `json:"id"`
	UserID           int64     `json:"userId"`
	FileIDs          []string  `json:"fileIds"`
	FileID           string    `json:"fileId"` // First artifact id, kept as a plain string for older readers
	ProcessingStatus string    `json:"processingStatus"`
	RecordingDate    time.Time `json:"recordingDate"`
	GenreFilter      string    `json:"genreFilter"`
	ArtistFilter     string    `json:"artistFilter"`
	Recommendations  []string  `json:"recommendations"`
	PerformanceData  []string  `json:"performanceData"`
	AccuracyScore    float64   `json:"accuracyScore"`
	ChildDocuments   []string  `json:"childDocuments,omitempty"`
	IsMasterDocument bool      `json:"isMasterDocument"`
}
