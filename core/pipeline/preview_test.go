package pipeline

import (
	"context"
	"testing"
	"time"
)

func TestPreviewPlayStop(t *testing.T) {
	engine := &fakePlayback{}
	audio := NewAudioSession()
	pv := NewPreview(engine, audio, nil)

	if err := pv.Play(context.Background(), "/tmp/take.m4a"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !pv.Playing() {
		t.Error("Playing() = false after Play")
	}
	if got := audio.Mode(); got != ModePlayback {
		t.Errorf("audio mode = %v, want ModePlayback", got)
	}

	pv.Stop()
	if pv.Playing() {
		t.Error("Playing() = true after Stop")
	}
	if !engine.handles[0].stopped {
		t.Error("handle not stopped")
	}
	if got := audio.Mode(); got != ModeIdle {
		t.Errorf("audio mode after stop = %v, want ModeIdle", got)
	}

	// Stopping again with nothing loaded is a no-op.
	pv.Stop()
}

func TestPreviewReplacesPrevious(t *testing.T) {
	engine := &fakePlayback{}
	pv := NewPreview(engine, NewAudioSession(), nil)

	if err := pv.Play(context.Background(), "/tmp/take1.m4a"); err != nil {
		t.Fatalf("first Play: %v", err)
	}
	if err := pv.Play(context.Background(), "/tmp/take2.m4a"); err != nil {
		t.Fatalf("second Play: %v", err)
	}

	if !engine.handles[0].stopped {
		t.Error("first preview not stopped by the second")
	}
	if engine.handles[1].stopped {
		t.Error("second preview stopped")
	}
}

func TestPreviewNaturalEnd(t *testing.T) {
	engine := &fakePlayback{}
	audio := NewAudioSession()
	events := make(chan Event, 4)
	pv := NewPreview(engine, audio, events)

	if err := pv.Play(context.Background(), "/tmp/take.m4a"); err != nil {
		t.Fatalf("Play: %v", err)
	}

	close(engine.handles[0].done)

	select {
	case ev := <-events:
		if ev.Type != EventPlaybackFinished {
			t.Errorf("event = %q, want %q", ev.Type, EventPlaybackFinished)
		}
	case <-time.After(time.Second):
		t.Fatal("no playback-finished event")
	}

	if pv.Playing() {
		t.Error("Playing() = true after natural end")
	}
	if got := audio.Mode(); got != ModeIdle {
		t.Errorf("audio mode after natural end = %v, want ModeIdle", got)
	}
}

func TestPreviewEmptyURI(t *testing.T) {
	pv := NewPreview(&fakePlayback{}, NewAudioSession(), nil)
	if err := pv.Play(context.Background(), ""); err == nil {
		t.Fatal("Play accepted an empty URI")
	}
}

func TestRecorderAndPreviewAreExclusive(t *testing.T) {
	audio := NewAudioSession()
	device := &fakeDevice{nextURI: "/tmp/take.m4a"}
	engine := &fakePlayback{}
	rec := NewRecorder(device, audio, nil)
	pv := NewPreview(engine, audio, nil)

	// Starting playback while recording aborts the capture session.
	cancel, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	if err := pv.Play(context.Background(), "/tmp/take.m4a"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if rec.Recording() {
		t.Error("recording session survived preview start")
	}
	if !device.sessions[0].aborted {
		t.Error("capture session not aborted by preview")
	}

	// And starting a recording stops the preview.
	cancel, err = rec.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	if pv.Playing() {
		t.Error("preview survived recording start")
	}
	if !engine.handles[0].stopped {
		t.Error("preview handle not stopped by recording start")
	}
	if got := audio.Mode(); got != ModeRecord {
		t.Errorf("audio mode = %v, want ModeRecord", got)
	}
}
