package pipeline

import (
	"errors"
	"testing"

	"github.com/lissants/berkaraoke/model"
)

var testSongIDs = []string{"song-a", "song-b", "song-c"}

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker(testSongIDs)

	if got := tr.Status("song-a"); got != model.SubmissionNotStarted {
		t.Fatalf("initial status = %q, want %q", got, model.SubmissionNotStarted)
	}
	if got := tr.RequiredCount(); got != 3 {
		t.Fatalf("RequiredCount() = %d, want 3", got)
	}

	if err := tr.BeginSubmission("song-a"); err != nil {
		t.Fatalf("BeginSubmission: %v", err)
	}
	if got := tr.Status("song-a"); got != model.SubmissionUploading {
		t.Fatalf("status after begin = %q, want %q", got, model.SubmissionUploading)
	}

	if err := tr.RecordSuccess("song-a", "artifact-1", "record-1"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	if got := tr.Status("song-a"); got != model.SubmissionCompleted {
		t.Fatalf("status after success = %q, want %q", got, model.SubmissionCompleted)
	}
	if got := tr.CompletedCount(); got != 1 {
		t.Fatalf("CompletedCount() = %d, want 1", got)
	}
}

func TestTrackerUnknownSong(t *testing.T) {
	tr := NewTracker(testSongIDs)

	if err := tr.BeginSubmission("song-z"); err == nil {
		t.Error("BeginSubmission accepted an unknown song")
	}
	if err := tr.RecordSuccess("song-z", "a", "r"); err == nil {
		t.Error("RecordSuccess accepted an unknown song")
	}
	if err := tr.RecordFailure("song-z"); err == nil {
		t.Error("RecordFailure accepted an unknown song")
	}
	if got := tr.Status("song-z"); got != model.SubmissionNotStarted {
		t.Errorf("Status for unknown song = %q, want %q", got, model.SubmissionNotStarted)
	}
}

func TestTrackerCompletedIsTerminal(t *testing.T) {
	tr := NewTracker(testSongIDs)

	mustComplete(t, tr, "song-a", "artifact-1", "record-1")

	if err := tr.BeginSubmission("song-a"); err == nil {
		t.Error("BeginSubmission allowed re-submitting a completed song")
	}
	if err := tr.RecordFailure("song-a"); err == nil {
		t.Error("RecordFailure demoted a completed song")
	}
}

func TestTrackerSuccessIsIdempotent(t *testing.T) {
	tr := NewTracker(testSongIDs)

	mustComplete(t, tr, "song-a", "artifact-1", "record-1")

	// A duplicate success report must not double-count or overwrite the
	// stored identifiers.
	if err := tr.RecordSuccess("song-a", "artifact-dup", "record-dup"); err != nil {
		t.Fatalf("duplicate RecordSuccess: %v", err)
	}
	if got := tr.CompletedCount(); got != 1 {
		t.Fatalf("CompletedCount() after duplicate success = %d, want 1", got)
	}

	mustComplete(t, tr, "song-b", "artifact-2", "record-2")
	mustComplete(t, tr, "song-c", "artifact-3", "record-3")

	subs, err := tr.CompletedSubmissions()
	if err != nil {
		t.Fatalf("CompletedSubmissions: %v", err)
	}
	if subs[0].ArtifactID != "artifact-1" || subs[0].RecordID != "record-1" {
		t.Errorf("song-a submission = %+v, original pair was replaced", subs[0])
	}
}

func TestTrackerFailureIsRetryable(t *testing.T) {
	tr := NewTracker(testSongIDs)

	if err := tr.BeginSubmission("song-b"); err != nil {
		t.Fatalf("BeginSubmission: %v", err)
	}
	if err := tr.RecordFailure("song-b"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if got := tr.Status("song-b"); got != model.SubmissionFailed {
		t.Fatalf("status after failure = %q, want %q", got, model.SubmissionFailed)
	}
	if got := tr.CompletedCount(); got != 0 {
		t.Fatalf("CompletedCount() after failure = %d, want 0", got)
	}

	if err := tr.BeginSubmission("song-b"); err != nil {
		t.Fatalf("retry BeginSubmission: %v", err)
	}
	if err := tr.RecordSuccess("song-b", "artifact-2", "record-2"); err != nil {
		t.Fatalf("retry RecordSuccess: %v", err)
	}
	if got := tr.CompletedCount(); got != 1 {
		t.Fatalf("CompletedCount() after retry = %d, want 1", got)
	}
}

func TestTrackerCanonicalOrdering(t *testing.T) {
	tr := NewTracker(testSongIDs)

	// Complete the songs in reverse order; the batch must still come out
	// in the declared order.
	mustComplete(t, tr, "song-c", "artifact-3", "record-3")
	mustComplete(t, tr, "song-a", "artifact-1", "record-1")
	mustComplete(t, tr, "song-b", "artifact-2", "record-2")

	subs, err := tr.CompletedSubmissions()
	if err != nil {
		t.Fatalf("CompletedSubmissions: %v", err)
	}
	for i, want := range []string{"song-a", "song-b", "song-c"} {
		if subs[i].SongID != want {
			t.Errorf("subs[%d].SongID = %q, want %q", i, subs[i].SongID, want)
		}
	}
	for i, want := range []string{"artifact-1", "artifact-2", "artifact-3"} {
		if subs[i].ArtifactID != want {
			t.Errorf("subs[%d].ArtifactID = %q, want %q", i, subs[i].ArtifactID, want)
		}
	}
}

func TestTrackerIncompleteBatch(t *testing.T) {
	tr := NewTracker(testSongIDs)

	mustComplete(t, tr, "song-a", "artifact-1", "record-1")
	mustComplete(t, tr, "song-b", "artifact-2", "record-2")

	_, err := tr.CompletedSubmissions()
	var incomplete *IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("CompletedSubmissions error = %v, want IncompleteError", err)
	}
	if incomplete.Completed != 2 || incomplete.Required != 3 {
		t.Errorf("IncompleteError = %d/%d, want 2/3", incomplete.Completed, incomplete.Required)
	}
}

func TestTrackerSnapshot(t *testing.T) {
	tr := NewTracker(testSongIDs)
	mustComplete(t, tr, "song-a", "artifact-1", "record-1")
	if err := tr.BeginSubmission("song-b"); err != nil {
		t.Fatalf("BeginSubmission: %v", err)
	}

	snap := tr.Snapshot()
	if snap["song-a"] != model.SubmissionCompleted {
		t.Errorf("snapshot[song-a] = %q, want %q", snap["song-a"], model.SubmissionCompleted)
	}
	if snap["song-b"] != model.SubmissionUploading {
		t.Errorf("snapshot[song-b] = %q, want %q", snap["song-b"], model.SubmissionUploading)
	}
	if snap["song-c"] != model.SubmissionNotStarted {
		t.Errorf("snapshot[song-c] = %q, want %q", snap["song-c"], model.SubmissionNotStarted)
	}
}

func mustComplete(t *testing.T, tr *Tracker, songID, artifactID, recordID string) {
	t.Helper()
	if err := tr.BeginSubmission(songID); err != nil {
		t.Fatalf("BeginSubmission(%s): %v", songID, err)
	}
	if err := tr.RecordSuccess(songID, artifactID, recordID); err != nil {
		t.Fatalf("RecordSuccess(%s): %v", songID, err)
	}
}
