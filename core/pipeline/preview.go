package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/lissants/berkaraoke/logger"
)

// PlaybackEngine abstracts local audio playback of a just-made recording.
type PlaybackEngine interface {
	// Play starts playback of the local media file.
	Play(ctx context.Context, uri string) (PlaybackHandle, error)
}

// PlaybackHandle is one loaded preview sound.
type PlaybackHandle interface {
	// Stop halts playback and releases the sound.
	Stop()
	// Done is closed when playback reaches its natural end.
	Done() <-chan struct{}
}

// Preview plays back a pending recording before the user commits to
// uploading it. At most one preview sound is loaded at a time, and playback
// is exclusive of recording mode.
type Preview struct {
	engine PlaybackEngine
	audio  *AudioSession
	events chan<- Event

	mu         sync.Mutex
	handle     PlaybackHandle
	generation int
}

// NewPreview creates a preview player over the given engine.
func NewPreview(engine PlaybackEngine, audio *AudioSession, events chan<- Event) *Preview {
	return &Preview{engine: engine, audio: audio, events: events}
}

// Play starts a preview of the given local media file, stopping and releasing
// any previously loaded preview first.
func (p *Preview) Play(ctx context.Context, uri string) error {
	if uri == "" {
		return fmt.Errorf("no recording to play")
	}

	p.Stop()

	// Playback mode is exclusive of capture; an active recording session is
	// released before the preview starts.
	p.audio.Acquire(ModePlayback, p.Stop)

	handle, err := p.engine.Play(ctx, uri)
	if err != nil {
		p.audio.Release(ModePlayback)
		return fmt.Errorf("failed to start playback: %w", err)
	}

	p.mu.Lock()
	p.handle = handle
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	go p.watchEnd(handle, gen)
	return nil
}

// watchEnd releases the preview when playback finishes on its own. This is
// the only implicit state transition in the pipeline.
func (p *Preview) watchEnd(handle PlaybackHandle, gen int) {
	<-handle.Done()

	p.mu.Lock()
	if p.generation != gen || p.handle != handle {
		// A newer preview replaced this one; nothing to release.
		p.mu.Unlock()
		return
	}
	p.handle = nil
	p.mu.Unlock()

	p.audio.Release(ModePlayback)
	emit(p.events, Event{Type: EventPlaybackFinished})
	logger.Debug("Preview playback finished")
}

// Stop stops and releases the loaded preview; no-op if none is loaded.
func (p *Preview) Stop() {
	p.mu.Lock()
	handle := p.handle
	p.handle = nil
	p.mu.Unlock()

	if handle != nil {
		handle.Stop()
		p.audio.Release(ModePlayback)
	}
}

// Playing reports whether a preview sound is currently loaded.
func (p *Preview) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle != nil
}
