package server

import (
	"net/http"
	"strconv"

	"github.com/lissants/berkaraoke/db"
	"github.com/lissants/berkaraoke/logger"
)

// GetTracksHandler returns a page of the karaoke catalog.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	page, err := h.trackRepo.GetAllTracks(limit, offset)
	if err != nil {
		logger.Error("Failed to query tracks", logger.ErrorField(err))
		http.Error(w, "Failed to query tracks", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetDesignatedTracksHandler returns the three songs every user must record.
func (h *APIHandler) GetDesignatedTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.GetTracksByIDs(h.cfg.RequiredSongIDs)
	if err != nil {
		logger.Error("Failed to query designated tracks", logger.ErrorField(err))
		http.Error(w, "Failed to query designated tracks", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracks":   tracks,
		"required": len(h.cfg.RequiredSongIDs),
	})
}

// FilterOptionsHandler returns the distinct genres and artists available as
// recommendation filters. Catalogs are cached in Redis with a short TTL.
func (h *APIHandler) FilterOptionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	genres, err := db.GetCachedGenres(ctx)
	if err != nil {
		if !db.IsCacheMiss(err) {
			logger.Warn("Genre cache read failed", logger.ErrorField(err))
		}
		genres, err = h.trackRepo.DistinctGenres()
		if err != nil {
			logger.Error("Failed to query genres", logger.ErrorField(err))
			http.Error(w, "Failed to query filter options", http.StatusInternalServerError)
			return
		}
		if err := db.SetCachedGenres(ctx, genres); err != nil {
			logger.Warn("Genre cache write failed", logger.ErrorField(err))
		}
	}

	artists, err := db.GetCachedArtists(ctx)
	if err != nil {
		if !db.IsCacheMiss(err) {
			logger.Warn("Artist cache read failed", logger.ErrorField(err))
		}
		artists, err = h.trackRepo.DistinctArtists()
		if err != nil {
			logger.Error("Failed to query artists", logger.ErrorField(err))
			http.Error(w, "Failed to query filter options", http.StatusInternalServerError)
			return
		}
		if err := db.SetCachedArtists(ctx, artists); err != nil {
			logger.Warn("Artist cache write failed", logger.ErrorField(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"genres":  append([]string{"all"}, genres...),
		"artists": append([]string{"all"}, artists...),
	})
}
