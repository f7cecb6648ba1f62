package pipeline

import "sync"

// AudioMode names the current owner of the audio subsystem.
type AudioMode int

const (
	ModeIdle AudioMode = iota
	ModeRecord
	ModePlayback
)

// AudioSession serializes access to the audio subsystem. Capture and playback
// are exclusive modes; acquiring one stops the current holder first
// (stop-old-before-start-new). Release callbacks run without the session
// lock held.
type AudioSession struct {
	mu      sync.Mutex
	mode    AudioMode
	release func()
}

// NewAudioSession creates an idle session.
func NewAudioSession() *AudioSession {
	return &AudioSession{}
}

// Acquire switches the session to the given mode, invoking the previous
// holder's release callback before installing the new one.
func (s *AudioSession) Acquire(mode AudioMode, release func()) {
	s.mu.Lock()
	prev := s.release
	s.mode = ModeIdle
	s.release = nil
	s.mu.Unlock()

	if prev != nil {
		prev()
	}

	s.mu.Lock()
	s.mode = mode
	s.release = release
	s.mu.Unlock()
}

// Release returns the session to idle if the caller's mode still holds it.
func (s *AudioSession) Release(mode AudioMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == mode {
		s.mode = ModeIdle
		s.release = nil
	}
}

// Mode reports the current owner.
func (s *AudioSession) Mode() AudioMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}
