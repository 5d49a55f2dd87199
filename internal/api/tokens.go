package api

import (
	"encoding/json"
	"net/http"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/localcache"
)

type registerTokenRequest struct {
	DeviceID string `json:"deviceId"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type unregisterTokenRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleRegisterToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DeviceID == "" || req.Token == "" {
		writeError(w, http.StatusBadRequest, "missing deviceId or token")
		return
	}

	record, err := s.tokens.CreateOrUpdate(r.Context(), userID, req.DeviceID, req.Token, req.Platform)
	if err != nil {
		s.logger.Error("Failed to register fcm token.", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	update := localcache.TokenUpdate{UserID: userID, Token: req.Token, Action: localcache.ActionAdd}
	if err := s.broadcast.Publish(r.Context(), localcache.UpdateChannel, update); err != nil {
		// Workers refresh on their next cache miss; the registration stands.
		s.logger.Warn("Failed to broadcast token registration.", "user_id", userID, "err", err)
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleUnregisterToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req unregisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := s.tokens.Deactivate(r.Context(), userID, req.Token); err != nil {
		s.logger.Error("Failed to deactivate fcm token.", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	update := localcache.TokenUpdate{UserID: userID, Token: req.Token, Action: localcache.ActionRemove}
	if err := s.broadcast.Publish(r.Context(), localcache.UpdateChannel, update); err != nil {
		s.logger.Warn("Failed to broadcast token removal.", "user_id", userID, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
