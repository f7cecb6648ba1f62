package pipeline

import (
	"fmt"
	"sync"

	"github.com/lissants/berkaraoke/model"
)

// Submission is the artifact/record pair stored for a completed song.
type Submission struct {
	SongID     string `json:"songId"`
	ArtifactID string `json:"artifactId"`
	RecordID   string `json:"recordId"`
}

// Tracker maps each required song to its submission status and to the
// identifiers produced by a successful upload. Song id is the correlation
// key: network responses may arrive in any order across songs, so submission
// order is never used.
//
// Status only moves forward: UPLOADING resolves to COMPLETED or FAILED,
// FAILED may re-enter UPLOADING on retry, COMPLETED is terminal.
type Tracker struct {
	mu          sync.Mutex
	required    []string
	status      map[string]model.SubmissionStatus
	submissions map[string]Submission
	completed   int
}

// NewTracker creates a tracker for the required songs in canonical order.
func NewTracker(requiredSongIDs []string) *Tracker {
	t := &Tracker{
		required:    append([]string(nil), requiredSongIDs...),
		status:      make(map[string]model.SubmissionStatus, len(requiredSongIDs)),
		submissions: make(map[string]Submission, len(requiredSongIDs)),
	}
	for _, id := range requiredSongIDs {
		t.status[id] = model.SubmissionNotStarted
	}
	return t
}

// BeginSubmission marks a song as uploading. A completed song cannot be
// re-submitted; a failed one can.
func (t *Tracker) BeginSubmission(songID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.status[songID]
	if !ok {
		return fmt.Errorf("song %s is not one of the required songs", songID)
	}
	if status == model.SubmissionCompleted {
		return fmt.Errorf("song %s is already completed", songID)
	}

	t.status[songID] = model.SubmissionUploading
	return nil
}

// RecordSuccess marks a song as completed and stores its artifact/record
// pair. Idempotent: a song already completed keeps its original pair and the
// completed count is not incremented again.
func (t *Tracker) RecordSuccess(songID, artifactID, recordID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.status[songID]
	if !ok {
		return fmt.Errorf("song %s is not one of the required songs", songID)
	}
	if status == model.SubmissionCompleted {
		return nil
	}
	if status != model.SubmissionUploading {
		return fmt.Errorf("song %s has no submission in progress", songID)
	}

	t.status[songID] = model.SubmissionCompleted
	t.submissions[songID] = Submission{SongID: songID, ArtifactID: artifactID, RecordID: recordID}
	t.completed++
	return nil
}

// RecordFailure marks a song's submission as failed. The completed count is
// untouched: a song that never completed never incremented it.
func (t *Tracker) RecordFailure(songID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.status[songID]
	if !ok {
		return fmt.Errorf("song %s is not one of the required songs", songID)
	}
	if status == model.SubmissionCompleted {
		return fmt.Errorf("song %s is already completed", songID)
	}

	t.status[songID] = model.SubmissionFailed
	return nil
}

// CompletedCount returns how many required songs are completed.
func (t *Tracker) CompletedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// RequiredCount returns how many songs must be completed for a batch.
func (t *Tracker) RequiredCount() int {
	return len(t.required)
}

// Status returns the submission status for a song, NOT_STARTED for unknown ids.
func (t *Tracker) Status(songID string) model.SubmissionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	if status, ok := t.status[songID]; ok {
		return status
	}
	return model.SubmissionNotStarted
}

// Snapshot returns the status of every required song, keyed by song id.
func (t *Tracker) Snapshot() map[string]model.SubmissionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]model.SubmissionStatus, len(t.status))
	for id, status := range t.status {
		out[id] = status
	}
	return out
}

// CompletedSubmissions returns the stored pairs in canonical song order, not
// the order submissions happened to complete. It fails unless every required
// song is completed.
func (t *Tracker) CompletedSubmissions() ([]Submission, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed < len(t.required) {
		return nil, &IncompleteError{Completed: t.completed, Required: len(t.required)}
	}

	out := make([]Submission, 0, len(t.required))
	for _, id := range t.required {
		sub, ok := t.submissions[id]
		if !ok {
			return nil, fmt.Errorf("song %s marked completed but has no submission", id)
		}
		out = append(out, sub)
	}
	return out, nil
}
