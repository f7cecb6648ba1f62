package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lissants/berkaraoke/logger"
)

// CaptureDevice abstracts the platform audio capture resource.
type CaptureDevice interface {
	// RequestPermission verifies microphone access is available.
	RequestPermission(ctx context.Context) error
	// Begin starts a capture session.
	Begin(ctx context.Context) (CaptureSession, error)
}

// CaptureSession is one live capture. Exactly one exists app-wide.
type CaptureSession interface {
	// Finalize stops the capture and returns the local media URI. An empty
	// URI with a nil error means the capture finished but produced nothing
	// usable.
	Finalize(ctx context.Context) (string, error)
	// Abort cancels the capture without producing output.
	Abort()
}

// Recorder owns the single live recording session: start, stop, discard,
// elapsed time. The pending media URI it holds after a clean stop is what the
// upload step consumes.
type Recorder struct {
	device CaptureDevice
	audio  *AudioSession
	events chan<- Event

	mu         sync.Mutex
	session    CaptureSession
	elapsed    int
	tickStop   chan struct{}
	pendingURI string
}

// NewRecorder creates a recorder over the given capture device.
func NewRecorder(device CaptureDevice, audio *AudioSession, events chan<- Event) *Recorder {
	return &Recorder{device: device, audio: audio, events: events}
}

// Start begins a new recording session. A session already active is aborted
// first; the restart never surfaces an "already recording" error. The
// returned function cancels the one-second elapsed tick.
func (r *Recorder) Start(ctx context.Context) (func(), error) {
	if err := r.device.RequestPermission(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	r.mu.Lock()
	prev := r.session
	r.stopTickLocked()
	r.session = nil
	r.mu.Unlock()
	if prev != nil {
		prev.Abort()
		logger.Debug("Aborted previous recording session before restart")
	}

	// Capture mode is exclusive of playback; any loaded preview is released.
	r.audio.Acquire(ModeRecord, r.abortActive)

	session, err := r.device.Begin(ctx)
	if err != nil {
		r.audio.Release(ModeRecord)
		return nil, fmt.Errorf("failed to begin capture: %w", err)
	}

	r.mu.Lock()
	r.session = session
	r.elapsed = 0
	stop := make(chan struct{})
	r.tickStop = stop
	r.mu.Unlock()

	go r.runTicker(stop)

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.tickStop == stop {
			r.stopTickLocked()
		}
	}
	return cancel, nil
}

func (r *Recorder) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			r.elapsed++
			elapsed := r.elapsed
			r.mu.Unlock()
			emit(r.events, Event{Type: EventTick, Elapsed: elapsed})
		}
	}
}

func (r *Recorder) stopTickLocked() {
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}
}

// Stop finalizes the active session and retains the produced media URI for
// upload. Session state is cleared whether or not finalization succeeds.
func (r *Recorder) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	session := r.session
	if session == nil {
		r.mu.Unlock()
		return "", ErrNoActiveSession
	}
	r.stopTickLocked()
	r.session = nil
	r.mu.Unlock()

	defer r.audio.Release(ModeRecord)

	uri, err := session.Finalize(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to finalize capture: %w", err)
	}
	if uri == "" {
		return "", ErrRecordingURIMissing
	}

	r.mu.Lock()
	r.pendingURI = uri
	r.mu.Unlock()

	emit(r.events, Event{Type: EventStopped, URI: uri})
	logger.Info("Recording stopped", logger.String("uri", uri))
	return uri, nil
}

// Discard drops any pending media reference without uploading, aborting a
// still-active session if one exists.
func (r *Recorder) Discard() {
	r.mu.Lock()
	session := r.session
	r.stopTickLocked()
	r.session = nil
	r.pendingURI = ""
	r.mu.Unlock()

	if session != nil {
		session.Abort()
		r.audio.Release(ModeRecord)
	}
}

func (r *Recorder) abortActive() {
	r.mu.Lock()
	session := r.session
	r.stopTickLocked()
	r.session = nil
	r.mu.Unlock()

	if session != nil {
		session.Abort()
	}
}

// PendingURI returns the media URI of the last clean stop, or "".
func (r *Recorder) PendingURI() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingURI
}

// ClearPending drops the pending media reference once it has been consumed.
func (r *Recorder) ClearPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingURI = ""
}

// Elapsed returns the active session's elapsed seconds.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Recording reports whether a capture session is live.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}
