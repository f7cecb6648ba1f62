package pipeline

// EventType names a recorder or preview state change.
type EventType string

const (
	// EventTick fires once per second while a recording session is active.
	EventTick EventType = "tick"
	// EventStopped fires when a session finalizes with a usable media file.
	EventStopped EventType = "stopped"
	// EventPlaybackFinished fires when a preview reaches its natural end.
	// This is the only transition not caused by direct user action.
	EventPlaybackFinished EventType = "playback_finished"
)

// Event is emitted by the Recorder and Preview on state changes. The
// orchestration core only depends on the two terminal events; ticks exist for
// UI display.
type Event struct {
	Type    EventType `json:"type"`
	Elapsed int       `json:"elapsed,omitempty"` // Seconds, for EventTick
	URI     string    `json:"uri,omitempty"`     // Local media URI, for EventStopped
}

// emit delivers an event without ever blocking the caller. A slow or absent
// consumer drops ticks rather than stalling the recorder.
func emit(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
