package pipeline

import (
	"errors"
	"fmt"
)

// Pipeline failures surfaced at action boundaries. Handlers map these to
// user-visible messages; none of them crash the process.
var (
	ErrPermissionDenied    = errors.New("microphone permission denied")
	ErrNoActiveSession     = errors.New("no active recording session")
	ErrRecordingURIMissing = errors.New("recording produced no local media file")
	ErrFileNotFound        = errors.New("recorded file no longer exists")
	ErrStorageRejected     = errors.New("object storage rejected the upload")
	ErrNoArtifactID        = errors.New("object storage returned no artifact id")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrServiceUnreachable  = errors.New("analysis service unreachable")
)

// ProcessingRejectedError reports a non-success response from the analysis
// service. Detail carries the service-reported message verbatim so the UI can
// show it unchanged.
type ProcessingRejectedError struct {
	Detail string
}

func (e *ProcessingRejectedError) Error() string {
	return fmt.Sprintf("analysis service rejected submission: %s", e.Detail)
}

// IncompleteError reports a batch submission attempted before all required
// songs were recorded.
type IncompleteError struct {
	Completed int
	Required  int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("only %d/%d songs recorded", e.Completed, e.Required)
}
