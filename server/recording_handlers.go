package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lissants/berkaraoke/core/pipeline"
	"github.com/lissants/berkaraoke/logger"
)

// StartRecordingHandler begins a microphone capture session. Starting while
// a capture is already running discards the old one first.
func (h *APIHandler) StartRecordingHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.pipeline.Recorder.Start(r.Context()); err != nil {
		logger.Error("Failed to start recording", logger.ErrorField(err))
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recording": true,
	})
}

// StopRecordingHandler finalizes the active capture session and keeps the
// produced file as the pending take.
func (h *APIHandler) StopRecordingHandler(w http.ResponseWriter, r *http.Request) {
	uri, err := h.pipeline.Recorder.Stop(r.Context())
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uri":     uri,
		"elapsed": h.pipeline.Recorder.Elapsed(),
	})
}

// DiscardRecordingHandler drops the active capture and any pending take.
func (h *APIHandler) DiscardRecordingHandler(w http.ResponseWriter, r *http.Request) {
	h.pipeline.Discard()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"discarded": true,
	})
}

// PlayPreviewHandler plays back the pending take through the preview engine.
func (h *APIHandler) PlayPreviewHandler(w http.ResponseWriter, r *http.Request) {
	uri := h.pipeline.Recorder.PendingURI()
	if uri == "" {
		writePipelineError(w, pipeline.ErrRecordingURIMissing)
		return
	}

	if err := h.pipeline.Preview.Play(r.Context(), uri); err != nil {
		logger.Error("Failed to start preview", logger.ErrorField(err), logger.String("uri", uri))
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playing": true,
		"uri":     uri,
	})
}

// StopPreviewHandler stops preview playback. Stopping when nothing is
// playing is not an error.
func (h *APIHandler) StopPreviewHandler(w http.ResponseWriter, r *http.Request) {
	h.pipeline.Preview.Stop()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playing": false,
	})
}

// SaveRecordingHandler uploads the pending take for a designated song,
// creates its tracking document and triggers analysis.
func (h *APIHandler) SaveRecordingHandler(w http.ResponseWriter, r *http.Request) {
	songID := mux.Vars(r)["song_id"]
	if songID == "" {
		http.Error(w, "Song ID is required", http.StatusBadRequest)
		return
	}

	result, err := h.pipeline.SaveRecording(r.Context(), songID)
	if err != nil {
		logger.Error("Failed to save recording",
			logger.String("songId", songID),
			logger.ErrorField(err))
		writePipelineError(w, err)
		return
	}

	resp := map[string]interface{}{
		"songId":         result.SongID,
		"artifactId":     result.ArtifactID,
		"recordId":       result.RecordID,
		"completedCount": result.CompletedCount,
		"required":       h.pipeline.Tracker.RequiredCount(),
	}
	if result.ProcessingError != "" {
		// Upload and tracking succeeded; the analysis trigger did not.
		resp["processingError"] = result.ProcessingError
	} else if result.Result != nil {
		resp["processing"] = result.Result
	}

	writeJSON(w, http.StatusOK, resp)
}

// SubmitBatchHandler creates the master document once all designated songs
// are completed and submits the batch for analysis.
func (h *APIHandler) SubmitBatchHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipeline.SubmitBatch(r.Context())
	if err != nil {
		logger.Error("Batch submission failed", logger.ErrorField(err))
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"masterRecordId": result.MasterRecordID,
		"recordIds":      result.RecordIDs,
		"artifactIds":    result.ArtifactIDs,
		"processing":     result.Result,
	})
}

// SubmissionStatusHandler reports per-song submission state and overall
// progress toward the batch.
func (h *APIHandler) SubmissionStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"songs":          h.pipeline.Tracker.Snapshot(),
		"completedCount": h.pipeline.Tracker.CompletedCount(),
		"required":       h.pipeline.Tracker.RequiredCount(),
	})
}

// ListRecordingsHandler returns the caller's recording documents, newest
// first.
func (h *APIHandler) ListRecordingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	recordings, err := h.recordingRepo.ListByUser(userID)
	if err != nil {
		logger.Error("Failed to list recordings", logger.Int64("userId", userID), logger.ErrorField(err))
		http.Error(w, "Failed to list recordings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recordings": recordings,
		"total":      len(recordings),
	})
}

// ListStorageObjectsHandler lists uploaded artifacts. Debug aid; artifact
// ids are opaque to clients and never parsed.
func (h *APIHandler) ListStorageObjectsHandler(w http.ResponseWriter, r *http.Request) {
	count, objects, err := h.store.ListAll(r.Context())
	if err != nil {
		logger.Error("Failed to list storage objects", logger.ErrorField(err))
		http.Error(w, "Failed to list storage objects", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   count,
		"objects": objects,
	})
}

// GetFiltersHandler returns the current recommendation filter selection.
func (h *APIHandler) GetFiltersHandler(w http.ResponseWriter, r *http.Request) {
	genre, artist := h.pipeline.Filters.Snapshot()
	writeJSON(w, http.StatusOK, map[string]string{
		"genreFilter":  genre,
		"artistFilter": artist,
	})
}

// SetFiltersHandler updates the recommendation filter selection used by
// subsequent submissions.
func (h *APIHandler) SetFiltersHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GenreFilter  string `json:"genreFilter"`
		ArtistFilter string `json:"artistFilter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.pipeline.Filters.Set(req.GenreFilter, req.ArtistFilter)

	genre, artist := h.pipeline.Filters.Snapshot()
	writeJSON(w, http.StatusOK, map[string]string{
		"genreFilter":  genre,
		"artistFilter": artist,
	})
}
