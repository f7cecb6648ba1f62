package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/lissants/berkaraoke/model"
	"github.com/lissants/berkaraoke/storage"
)

// --- fakes ---

type fakeSession struct {
	uri     string
	aborted bool
}

func (s *fakeSession) Finalize(ctx context.Context) (string, error) { return s.uri, nil }
func (s *fakeSession) Abort()                                       { s.aborted = true }

type fakeDevice struct {
	nextURI  string
	sessions []*fakeSession
	denied   bool
}

func (d *fakeDevice) RequestPermission(ctx context.Context) error {
	if d.denied {
		return errors.New("denied")
	}
	return nil
}

func (d *fakeDevice) Begin(ctx context.Context) (CaptureSession, error) {
	s := &fakeSession{uri: d.nextURI}
	d.sessions = append(d.sessions, s)
	return s, nil
}

type fakeHandle struct {
	done    chan struct{}
	stopped bool
}

func (h *fakeHandle) Stop()                 { h.stopped = true }
func (h *fakeHandle) Done() <-chan struct{} { return h.done }

type fakePlayback struct {
	handles []*fakeHandle
}

func (p *fakePlayback) Play(ctx context.Context, uri string) (PlaybackHandle, error) {
	h := &fakeHandle{done: make(chan struct{})}
	p.handles = append(p.handles, h)
	return h, nil
}

type fakeStore struct {
	nextID string
	err    error
	names  []string
}

func (s *fakeStore) Store(ctx context.Context, r io.Reader, size int64, fileName, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.names = append(s.names, fileName)
	if s.nextID == "" {
		return "", nil
	}
	id := s.nextID
	s.nextID = ""
	return id, nil
}

func (s *fakeStore) ListAll(ctx context.Context) (int, []storage.StoredObject, error) {
	return 0, nil, nil
}

type fakeRecords struct {
	created []*model.Recording
	err     error
}

func (r *fakeRecords) Create(rec *model.Recording) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	id := fmt.Sprintf("record-%d", len(r.created)+1)
	rec.ID = id
	r.created = append(r.created, rec)
	return id, nil
}

func (r *fakeRecords) GetByID(id string) (*model.Recording, error) {
	for _, rec := range r.created {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *fakeRecords) ListByUser(userID int64) ([]*model.Recording, error) {
	var out []*model.Recording
	for _, rec := range r.created {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeTracks struct {
	tracks map[string]*model.KaraokeTrack
}

func (f *fakeTracks) GetTrackByID(id string) (*model.KaraokeTrack, error) {
	return f.tracks[id], nil
}

func (f *fakeTracks) GetTracksByIDs(ids []string) ([]*model.KaraokeTrack, error) {
	var out []*model.KaraokeTrack
	for _, id := range ids {
		if t, ok := f.tracks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTracks) GetAllTracks(limit, offset int) (*model.TrackPage, error) { return nil, nil }
func (f *fakeTracks) DistinctGenres() ([]string, error)                        { return nil, nil }
func (f *fakeTracks) DistinctArtists() ([]string, error)                       { return nil, nil }

type analysisCall struct {
	artifactIDs    []string
	recordIDs      []string
	masterRecordID string
	genre, artist  string
}

type fakeAnalysis struct {
	singles  []analysisCall
	batches  []analysisCall
	oneErr   error
	batchErr error
}

func (f *fakeAnalysis) SubmitOne(ctx context.Context, artifactID, recordID, userID, genreFilter, artistFilter string) (ProcessResult, error) {
	f.singles = append(f.singles, analysisCall{
		artifactIDs: []string{artifactID},
		recordIDs:   []string{recordID},
		genre:       genreFilter,
		artist:      artistFilter,
	})
	if f.oneErr != nil {
		return nil, f.oneErr
	}
	return ProcessResult{"status": "queued"}, nil
}

func (f *fakeAnalysis) SubmitBatch(ctx context.Context, artifactIDs, recordIDs []string, masterRecordID, userID, genreFilter, artistFilter string) (ProcessResult, error) {
	f.batches = append(f.batches, analysisCall{
		artifactIDs:    artifactIDs,
		recordIDs:      recordIDs,
		masterRecordID: masterRecordID,
		genre:          genreFilter,
		artist:         artistFilter,
	})
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return ProcessResult{"status": "queued"}, nil
}

type fakeIdentity struct {
	user *model.User
}

func (f *fakeIdentity) CurrentUser(ctx context.Context) (*model.User, error) {
	return f.user, nil
}

// --- test harness ---

type pipelineHarness struct {
	pl       *Pipeline
	device   *fakeDevice
	store    *fakeStore
	records  *fakeRecords
	analysis *fakeAnalysis
	identity *fakeIdentity
	dir      string
}

func newHarness(t *testing.T) *pipelineHarness {
	t.Helper()

	device := &fakeDevice{}
	store := &fakeStore{}
	records := &fakeRecords{}
	analysis := &fakeAnalysis{}
	identity := &fakeIdentity{user: &model.User{ID: 7, Username: "ayu"}}
	tracks := &fakeTracks{tracks: map[string]*model.KaraokeTrack{
		"song-a": {ID: "song-a", SongName: "First Song"},
		"song-b": {ID: "song-b", SongName: "Second Song"},
		"song-c": {ID: "song-c", SongName: "Third Song"},
	}}

	pl := New(device, &fakePlayback{}, store, records, tracks, analysis, identity, testSongIDs)
	return &pipelineHarness{
		pl:       pl,
		device:   device,
		store:    store,
		records:  records,
		analysis: analysis,
		identity: identity,
		dir:      t.TempDir(),
	}
}

// record simulates a full start/stop capture cycle producing a real file.
func (h *pipelineHarness) record(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, []byte("m4a bytes"), 0o644); err != nil {
		t.Fatalf("failed to write capture file: %v", err)
	}
	h.device.nextURI = path

	cancelTick, err := h.pl.Recorder.Start(context.Background())
	if err != nil {
		t.Fatalf("Recorder.Start: %v", err)
	}
	cancelTick()

	uri, err := h.pl.Recorder.Stop(context.Background())
	if err != nil {
		t.Fatalf("Recorder.Stop: %v", err)
	}
	return uri
}

func (h *pipelineHarness) save(t *testing.T, songID, artifactID string) *SaveResult {
	t.Helper()
	h.store.nextID = artifactID
	result, err := h.pl.SaveRecording(context.Background(), songID)
	if err != nil {
		t.Fatalf("SaveRecording(%s): %v", songID, err)
	}
	return result
}

// --- tests ---

func TestSaveRecordingCompletesSong(t *testing.T) {
	h := newHarness(t)
	h.record(t, "take1.m4a")

	result := h.save(t, "song-a", "artifact-1")

	if result.ArtifactID != "artifact-1" || result.RecordID != "record-1" {
		t.Errorf("result = %+v", result)
	}
	if result.CompletedCount != 1 {
		t.Errorf("CompletedCount = %d, want 1", result.CompletedCount)
	}
	if got := h.pl.Tracker.Status("song-a"); got != model.SubmissionCompleted {
		t.Errorf("status = %q, want %q", got, model.SubmissionCompleted)
	}
	if h.pl.Recorder.PendingURI() != "" {
		t.Error("pending URI survived a successful save")
	}

	if len(h.records.created) != 1 {
		t.Fatalf("created %d records, want 1", len(h.records.created))
	}
	rec := h.records.created[0]
	if rec.FileID != "artifact-1" || len(rec.FileIDs) != 1 || rec.FileIDs[0] != "artifact-1" {
		t.Errorf("record file ids = %q/%v", rec.FileID, rec.FileIDs)
	}
	if rec.ProcessingStatus != model.ProcessingPending {
		t.Errorf("processing status = %q, want %q", rec.ProcessingStatus, model.ProcessingPending)
	}
	if rec.IsMasterDocument {
		t.Error("single-song record flagged as master")
	}

	if len(h.analysis.singles) != 1 {
		t.Fatalf("analysis triggered %d times, want 1", len(h.analysis.singles))
	}
}

func TestSaveRecordingWithoutUser(t *testing.T) {
	h := newHarness(t)
	h.identity.user = nil
	h.record(t, "take1.m4a")

	_, err := h.pl.SaveRecording(context.Background(), "song-a")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
}

func TestSaveRecordingWithoutPendingTake(t *testing.T) {
	h := newHarness(t)

	_, err := h.pl.SaveRecording(context.Background(), "song-a")
	if !errors.Is(err, ErrRecordingURIMissing) {
		t.Fatalf("error = %v, want ErrRecordingURIMissing", err)
	}
}

func TestSaveRecordingFileVanished(t *testing.T) {
	h := newHarness(t)
	uri := h.record(t, "take1.m4a")
	if err := os.Remove(uri); err != nil {
		t.Fatalf("failed to remove capture file: %v", err)
	}

	h.store.nextID = "artifact-1"
	_, err := h.pl.SaveRecording(context.Background(), "song-a")
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("error = %v, want ErrFileNotFound", err)
	}

	if got := h.pl.Tracker.Status("song-a"); got != model.SubmissionFailed {
		t.Errorf("status = %q, want %q", got, model.SubmissionFailed)
	}
	if got := h.pl.Tracker.Status("song-b"); got != model.SubmissionNotStarted {
		t.Errorf("unrelated song status = %q, want %q", got, model.SubmissionNotStarted)
	}
	if len(h.analysis.singles) != 0 {
		t.Error("analysis triggered despite failed upload")
	}

	// The failure is retryable with a fresh take.
	h.record(t, "take2.m4a")
	h.save(t, "song-a", "artifact-1")
	if got := h.pl.Tracker.Status("song-a"); got != model.SubmissionCompleted {
		t.Errorf("status after retry = %q, want %q", got, model.SubmissionCompleted)
	}
}

func TestSaveRecordingMissingArtifactID(t *testing.T) {
	h := newHarness(t)
	h.record(t, "take1.m4a")

	// Store "succeeds" but returns no identifier.
	_, err := h.pl.SaveRecording(context.Background(), "song-a")
	if !errors.Is(err, ErrNoArtifactID) {
		t.Fatalf("error = %v, want ErrNoArtifactID", err)
	}
	if got := h.pl.Tracker.Status("song-a"); got != model.SubmissionFailed {
		t.Errorf("status = %q, want %q", got, model.SubmissionFailed)
	}
	if len(h.records.created) != 0 {
		t.Error("tracking record created despite missing artifact id")
	}
}

func TestSaveRecordingStorageRejected(t *testing.T) {
	h := newHarness(t)
	h.record(t, "take1.m4a")
	h.store.err = errors.New("bucket quota exceeded")

	_, err := h.pl.SaveRecording(context.Background(), "song-a")
	if !errors.Is(err, ErrStorageRejected) {
		t.Fatalf("error = %v, want ErrStorageRejected", err)
	}
	if got := h.pl.Tracker.Status("song-a"); got != model.SubmissionFailed {
		t.Errorf("status = %q, want %q", got, model.SubmissionFailed)
	}
}

func TestSaveRecordingTriggerFailureKeepsCompletion(t *testing.T) {
	h := newHarness(t)
	h.record(t, "take1.m4a")
	h.analysis.oneErr = &ProcessingRejectedError{Detail: "busy"}

	result := h.save(t, "song-a", "artifact-1")

	if result.ProcessingError == "" {
		t.Error("trigger failure not reported in result")
	}
	if got := h.pl.Tracker.Status("song-a"); got != model.SubmissionCompleted {
		t.Errorf("status = %q, want %q; trigger failure must not demote", got, model.SubmissionCompleted)
	}
	if result.CompletedCount != 1 {
		t.Errorf("CompletedCount = %d, want 1", result.CompletedCount)
	}
}

func TestSubmitBatchRequiresAllSongs(t *testing.T) {
	h := newHarness(t)
	h.record(t, "take1.m4a")
	h.save(t, "song-a", "artifact-1")
	h.record(t, "take2.m4a")
	h.save(t, "song-b", "artifact-2")

	_, err := h.pl.SubmitBatch(context.Background())
	var incomplete *IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("error = %v, want IncompleteError", err)
	}
	if incomplete.Completed != 2 {
		t.Errorf("Completed = %d, want 2", incomplete.Completed)
	}
	if len(h.records.created) != 2 {
		t.Errorf("master record created despite incomplete batch: %d records", len(h.records.created))
	}
}

func TestSubmitBatchCanonicalOrdering(t *testing.T) {
	h := newHarness(t)

	// Record out of canonical order; the batch payload must not care.
	h.record(t, "take-c.m4a")
	h.save(t, "song-c", "artifact-3")
	h.record(t, "take-a.m4a")
	h.save(t, "song-a", "artifact-1")
	h.record(t, "take-b.m4a")
	h.save(t, "song-b", "artifact-2")

	result, err := h.pl.SubmitBatch(context.Background())
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}

	wantArtifacts := []string{"artifact-1", "artifact-2", "artifact-3"}
	for i, want := range wantArtifacts {
		if result.ArtifactIDs[i] != want {
			t.Errorf("ArtifactIDs[%d] = %q, want %q", i, result.ArtifactIDs[i], want)
		}
	}

	if len(h.records.created) != 4 {
		t.Fatalf("created %d records, want 3 songs + 1 master", len(h.records.created))
	}
	master := h.records.created[3]
	if !master.IsMasterDocument {
		t.Error("master record not flagged")
	}
	if len(master.FileIDs) != 3 || master.FileIDs[0] != "artifact-1" {
		t.Errorf("master FileIDs = %v", master.FileIDs)
	}
	if len(master.ChildDocuments) != 3 {
		t.Errorf("master ChildDocuments = %v", master.ChildDocuments)
	}

	if len(h.analysis.batches) != 1 {
		t.Fatalf("batch triggered %d times, want 1", len(h.analysis.batches))
	}
	call := h.analysis.batches[0]
	if call.masterRecordID != master.ID {
		t.Errorf("batch masterRecordID = %q, want %q", call.masterRecordID, master.ID)
	}
}

func TestSubmitBatchTriggerFailureKeepsMasterRecord(t *testing.T) {
	h := newHarness(t)
	for i, song := range testSongIDs {
		h.record(t, fmt.Sprintf("take%d.m4a", i))
		h.save(t, song, fmt.Sprintf("artifact-%d", i+1))
	}
	h.analysis.batchErr = ErrServiceUnreachable

	_, err := h.pl.SubmitBatch(context.Background())
	if !errors.Is(err, ErrServiceUnreachable) {
		t.Fatalf("error = %v, want ErrServiceUnreachable", err)
	}

	// The master record is persisted before the trigger; no rollback.
	if len(h.records.created) != 4 {
		t.Errorf("created %d records, want master to persist", len(h.records.created))
	}
}

func TestSaveRecordingCarriesFilterSelection(t *testing.T) {
	h := newHarness(t)
	h.pl.Filters.Set("rock", "queen")
	h.record(t, "take1.m4a")

	h.save(t, "song-a", "artifact-1")

	rec := h.records.created[0]
	if rec.GenreFilter != "rock" || rec.ArtistFilter != "queen" {
		t.Errorf("record filters = %q/%q, want rock/queen", rec.GenreFilter, rec.ArtistFilter)
	}
	call := h.analysis.singles[0]
	if call.genre != "rock" || call.artist != "queen" {
		t.Errorf("trigger filters = %q/%q, want rock/queen", call.genre, call.artist)
	}
}
