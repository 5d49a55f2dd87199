package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/storage/mongodb"
	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

type notificationPage struct {
	Items []notify.Notification `json:"items"`
	Total int64                 `json:"total"`
	Page  int64                 `json:"page"`
	Limit int64                 `json:"limit"`
}

// pathType validates the {type} path segment against the persisted labels.
func pathType(w http.ResponseWriter, r *http.Request) (string, bool) {
	t, err := notify.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return t.Label(), true
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	label, ok := pathType(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	items, total, err := s.notifications.List(r.Context(), userID, label, page, limit)
	if err != nil {
		s.logger.Error("Failed to list notifications.", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	writeJSON(w, http.StatusOK, notificationPage{Items: items, Total: total, Page: page, Limit: limit})
}

func (s *Server) handleLatestUnread(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	label, ok := pathType(w, r)
	if !ok {
		return
	}

	record, err := s.notifications.LatestUnread(r.Context(), userID, label)
	if errors.Is(err, mongodb.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no unread notification")
		return
	}
	if err != nil {
		s.logger.Error("Failed to load latest unread notification.", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	record, err := s.notifications.MarkRead(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, mongodb.ErrNotFound) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to mark notification read.", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	label, ok := pathType(w, r)
	if !ok {
		return
	}

	updated, err := s.notifications.MarkAllRead(r.Context(), userID, label)
	if err != nil {
		s.logger.Error("Failed to mark notifications read.", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func queryInt(r *http.Request, name string, fallback int64) int64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
