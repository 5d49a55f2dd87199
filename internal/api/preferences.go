package api

import (
	"encoding/json"
	"net/http"

	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	prefs, err := s.settings.FindByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error("Failed to load preferences.", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	if prefs == nil {
		defaults := notify.DefaultPreferences()
		prefs = &defaults
	}

	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var prefs notify.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := s.settings.Upsert(r.Context(), userID, prefs); err != nil {
		s.logger.Error("Failed to save preferences.", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	s.prefCache.Update(r.Context(), userID, prefs)
	writeJSON(w, http.StatusOK, prefs)
}
