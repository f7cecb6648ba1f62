package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lissants/berkaraoke/logger"
	"github.com/lissants/berkaraoke/model"
	"github.com/lissants/berkaraoke/repository"
	"github.com/lissants/berkaraoke/storage"
)

// ObjectStore abstracts the object storage collaborator that owns artifacts.
type ObjectStore interface {
	// Store durably writes the object and returns its artifact identifier.
	Store(ctx context.Context, r io.Reader, size int64, fileName, contentType string) (string, error)
	// ListAll lists every stored artifact. Diagnostic only.
	ListAll(ctx context.Context) (int, []storage.StoredObject, error)
}

// Identity abstracts the identity collaborator.
type Identity interface {
	// CurrentUser returns the signed-in user, or nil when nobody is.
	CurrentUser(ctx context.Context) (*model.User, error)
}

// SaveResult reports the outcome of one song submission. Upload success and
// processing-trigger success are tracked independently: ProcessingError set
// alongside a non-empty ArtifactID means the song is COMPLETED but the
// analysis request failed.
type SaveResult struct {
	SongID          string        `json:"songId"`
	ArtifactID      string        `json:"artifactId"`
	RecordID        string        `json:"recordId"`
	CompletedCount  int           `json:"completedCount"`
	ProcessingError string        `json:"processingError,omitempty"`
	Result          ProcessResult `json:"result,omitempty"`
}

// BatchResult reports a successful batch submission.
type BatchResult struct {
	MasterRecordID string        `json:"masterRecordId"`
	RecordIDs      []string      `json:"recordIds"`
	ArtifactIDs    []string      `json:"artifactIds"`
	Result         ProcessResult `json:"result,omitempty"`
}

// Pipeline is the capture-upload-submission orchestrator. It owns the
// tracker and filter selection; the recorder and preview own their single
// live sessions. No other component mutates this state.
type Pipeline struct {
	Recorder *Recorder
	Preview  *Preview
	Tracker  *Tracker
	Filters  *FilterSelection

	store    ObjectStore
	records  repository.RecordingRepository
	tracks   repository.TrackRepository
	analysis AnalysisService
	identity Identity
	events   chan Event
}

// New wires a pipeline from its collaborators.
func New(
	device CaptureDevice,
	playback PlaybackEngine,
	store ObjectStore,
	records repository.RecordingRepository,
	tracks repository.TrackRepository,
	analysis AnalysisService,
	identity Identity,
	requiredSongIDs []string,
) *Pipeline {
	events := make(chan Event, 64)
	audio := NewAudioSession()

	return &Pipeline{
		Recorder: NewRecorder(device, audio, events),
		Preview:  NewPreview(playback, audio, events),
		Tracker:  NewTracker(requiredSongIDs),
		Filters:  NewFilterSelection(),
		store:    store,
		records:  records,
		tracks:   tracks,
		analysis: analysis,
		identity: identity,
		events:   events,
	}
}

// Events exposes recorder/preview state changes for UI streaming.
func (p *Pipeline) Events() <-chan Event {
	return p.events
}

// Discard drops the pending recording without uploading. An active preview
// is stopped and released first.
func (p *Pipeline) Discard() {
	p.Preview.Stop()
	p.Recorder.Discard()
}

// SaveRecording uploads the pending recording for songID, creates its
// tracking record, and fires the analysis trigger. Upload success alone
// gates the song's COMPLETED status; a trigger failure is reported in the
// result but does not demote the song.
func (p *Pipeline) SaveRecording(ctx context.Context, songID string) (*SaveResult, error) {
	user, err := p.identity.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current user: %w", err)
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	uri := p.Recorder.PendingURI()
	if uri == "" {
		return nil, fmt.Errorf("%w: nothing recorded for song %s", ErrRecordingURIMissing, songID)
	}

	track, err := p.tracks.GetTrackByID(songID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up song %s: %w", songID, err)
	}
	if track == nil {
		return nil, fmt.Errorf("unknown song %s", songID)
	}

	if err := p.Tracker.BeginSubmission(songID); err != nil {
		return nil, err
	}

	genre, artist := p.Filters.Snapshot()
	fileName := submissionFileName(user.Username, track.SongName)

	artifactID, err := p.upload(ctx, uri, fileName)
	if err != nil {
		p.Tracker.RecordFailure(songID)
		logger.Error("Upload failed",
			logger.String("songId", songID),
			logger.ErrorField(err),
		)
		return nil, err
	}

	rec := &model.Recording{
		UserID:           user.ID,
		FileIDs:          []string{artifactID},
		FileID:           artifactID,
		ProcessingStatus: model.ProcessingPending,
		RecordingDate:    time.Now(),
		GenreFilter:      genre,
		ArtistFilter:     artist,
		Recommendations:  []string{},
		PerformanceData:  []string{},
	}
	recordID, err := p.records.Create(rec)
	if err != nil {
		p.Tracker.RecordFailure(songID)
		return nil, fmt.Errorf("failed to create tracking record: %w", err)
	}

	if err := p.Tracker.RecordSuccess(songID, artifactID, recordID); err != nil {
		return nil, err
	}
	p.Recorder.ClearPending()

	p.debugListDocuments(ctx, user.ID)

	result := &SaveResult{
		SongID:         songID,
		ArtifactID:     artifactID,
		RecordID:       recordID,
		CompletedCount: p.Tracker.CompletedCount(),
	}

	// The trigger's outcome is independent of the upload's: the song stays
	// COMPLETED even when the analysis request fails.
	payload, perr := p.analysis.SubmitOne(ctx, artifactID, recordID, formatUserID(user.ID), genre, artist)
	if perr != nil {
		result.ProcessingError = perr.Error()
		logger.Warn("Processing trigger failed after successful upload",
			logger.String("songId", songID),
			logger.String("recordId", recordID),
			logger.ErrorField(perr),
		)
	} else {
		result.Result = payload
	}

	logger.Info("Recording saved",
		logger.String("songId", songID),
		logger.String("artifactId", artifactID),
		logger.String("recordId", recordID),
		logger.Int("completed", result.CompletedCount),
	)
	return result, nil
}

// SubmitBatch assembles the master submission once every required song is
// completed. Record and artifact ids follow the canonical song ordering.
// There is no guard against re-invocation after success; calling it again
// creates another master record.
func (p *Pipeline) SubmitBatch(ctx context.Context) (*BatchResult, error) {
	user, err := p.identity.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current user: %w", err)
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	subs, err := p.Tracker.CompletedSubmissions()
	if err != nil {
		return nil, err
	}

	recordIDs := make([]string, len(subs))
	artifactIDs := make([]string, len(subs))
	for i, sub := range subs {
		recordIDs[i] = sub.RecordID
		artifactIDs[i] = sub.ArtifactID
	}

	genre, artist := p.Filters.Snapshot()

	master := &model.Recording{
		UserID:           user.ID,
		FileIDs:          artifactIDs,
		ProcessingStatus: model.ProcessingPending,
		RecordingDate:    time.Now(),
		GenreFilter:      genre,
		ArtistFilter:     artist,
		Recommendations:  []string{},
		PerformanceData:  []string{},
		ChildDocuments:   recordIDs,
		IsMasterDocument: true,
	}
	masterID, err := p.records.Create(master)
	if err != nil {
		return nil, fmt.Errorf("failed to create master record: %w", err)
	}

	payload, err := p.analysis.SubmitBatch(ctx, artifactIDs, recordIDs, masterID, formatUserID(user.ID), genre, artist)
	if err != nil {
		logger.Error("Batch trigger failed",
			logger.String("masterRecordId", masterID),
			logger.ErrorField(err),
		)
		return nil, err
	}

	logger.Info("Batch submitted",
		logger.String("masterRecordId", masterID),
		logger.Int("songs", len(subs)),
		logger.String("genreFilter", genre),
		logger.String("artistFilter", artist),
	)
	return &BatchResult{
		MasterRecordID: masterID,
		RecordIDs:      recordIDs,
		ArtifactIDs:    artifactIDs,
		Result:         payload,
	}, nil
}

// upload durably stores the local media file and returns its artifact id.
// No internal retry: retry policy belongs to the caller.
func (p *Pipeline) upload(ctx context.Context, uri, fileName string) (string, error) {
	info, err := os.Stat(uri)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, uri)
		}
		return "", fmt.Errorf("failed to stat %s: %w", uri, err)
	}

	f, err := os.Open(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, uri)
	}
	defer f.Close()

	artifactID, err := p.store.Store(ctx, f, info.Size(), fileName, "audio/x-m4a")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageRejected, err)
	}
	if artifactID == "" {
		// The collaborator reported success but omitted the identifier;
		// treat as failure, never success.
		return "", ErrNoArtifactID
	}
	return artifactID, nil
}

// debugListDocuments logs the user's tracking records and the stored
// artifact count. Failures here are diagnostic only and never surfaced.
func (p *Pipeline) debugListDocuments(ctx context.Context, userID int64) {
	recs, err := p.records.ListByUser(userID)
	if err != nil {
		logger.Debug("Debug document listing failed", logger.ErrorField(err))
		return
	}
	logger.Debug("User documents", logger.Int64("userId", userID), logger.Int("count", len(recs)))

	if count, _, err := p.store.ListAll(ctx); err != nil {
		logger.Debug("Debug artifact listing failed", logger.ErrorField(err))
	} else {
		logger.Debug("Stored artifacts", logger.Int("count", count))
	}
}

// submissionFileName derives the audit file name: user, song, timestamp.
func submissionFileName(username, songName string) string {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	timestamp = strings.NewReplacer(":", "-", ".", "-").Replace(timestamp)
	return fmt.Sprintf("%s_%s_%s.m4a", username, songName, timestamp)
}

func formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}
