package pipeline

import (
	"context"
	"errors"
	"testing"
)

func newTestRecorder(device *fakeDevice) (*Recorder, *AudioSession) {
	audio := NewAudioSession()
	return NewRecorder(device, audio, nil), audio
}

func TestRecorderStartStop(t *testing.T) {
	device := &fakeDevice{nextURI: "/tmp/take.m4a"}
	rec, audio := newTestRecorder(device)

	cancel, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer cancel()

	if !rec.Recording() {
		t.Error("Recording() = false while session is live")
	}
	if got := audio.Mode(); got != ModeRecord {
		t.Errorf("audio mode = %v, want ModeRecord", got)
	}

	uri, err := rec.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if uri != "/tmp/take.m4a" {
		t.Errorf("uri = %q", uri)
	}
	if rec.PendingURI() != uri {
		t.Errorf("PendingURI() = %q, want %q", rec.PendingURI(), uri)
	}
	if rec.Recording() {
		t.Error("Recording() = true after stop")
	}
	if got := audio.Mode(); got != ModeIdle {
		t.Errorf("audio mode after stop = %v, want ModeIdle", got)
	}
}

func TestRecorderStopWithoutSession(t *testing.T) {
	rec, _ := newTestRecorder(&fakeDevice{})

	if _, err := rec.Stop(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Stop error = %v, want ErrNoActiveSession", err)
	}
}

func TestRecorderRestartAbortsPrevious(t *testing.T) {
	device := &fakeDevice{nextURI: "/tmp/take.m4a"}
	rec, _ := newTestRecorder(device)

	cancel1, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}
	cancel1()

	// Starting again must not fail with "already recording"; the first
	// session is simply abandoned.
	cancel2, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	cancel2()

	if len(device.sessions) != 2 {
		t.Fatalf("began %d sessions, want 2", len(device.sessions))
	}
	if !device.sessions[0].aborted {
		t.Error("first session not aborted on restart")
	}
	if device.sessions[1].aborted {
		t.Error("second session aborted")
	}
}

func TestRecorderPermissionDenied(t *testing.T) {
	rec, _ := newTestRecorder(&fakeDevice{denied: true})

	if _, err := rec.Start(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Start error = %v, want ErrPermissionDenied", err)
	}
}

func TestRecorderFinalizeWithoutOutput(t *testing.T) {
	// Finalize returning an empty URI means the capture produced nothing
	// usable; this must surface as an error, never a silent success.
	device := &fakeDevice{nextURI: ""}
	rec, _ := newTestRecorder(device)

	cancel, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	if _, err := rec.Stop(context.Background()); !errors.Is(err, ErrRecordingURIMissing) {
		t.Fatalf("Stop error = %v, want ErrRecordingURIMissing", err)
	}
	if rec.PendingURI() != "" {
		t.Error("pending URI set despite unusable capture")
	}
}

func TestRecorderDiscard(t *testing.T) {
	device := &fakeDevice{nextURI: "/tmp/take.m4a"}
	rec, audio := newTestRecorder(device)

	cancel, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	rec.Discard()

	if rec.Recording() {
		t.Error("Recording() = true after discard")
	}
	if !device.sessions[0].aborted {
		t.Error("discard did not abort the live session")
	}
	if got := audio.Mode(); got != ModeIdle {
		t.Errorf("audio mode after discard = %v, want ModeIdle", got)
	}

	// Discard also drops a pending take left by an earlier stop.
	if _, err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := rec.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	rec.Discard()
	if rec.PendingURI() != "" {
		t.Error("pending URI survived discard")
	}
}
