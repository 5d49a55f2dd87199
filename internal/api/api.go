// Package api is the admin HTTP surface: token registration, notification
// settings and the read-model over persisted notifications.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/storage/mongodb"
	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

// userHeader identifies the caller. The gateway in front of this service
// validates the session and injects the header.
const userHeader = "X-User-Id"

// NotificationReader is the read-model over persisted notifications.
type NotificationReader interface {
	List(ctx context.Context, userID, notifType string, page, limit int64) ([]notify.Notification, int64, error)
	LatestUnread(ctx context.Context, userID, notifType string) (notify.Notification, error)
	MarkRead(ctx context.Context, userID, id string) (notify.Notification, error)
	MarkAllRead(ctx context.Context, userID, notifType string) (int64, error)
}

// SettingWriter persists per-user notification settings.
type SettingWriter interface {
	FindByUser(ctx context.Context, userID string) (*notify.Preferences, error)
	Upsert(ctx context.Context, userID string, prefs notify.Preferences) error
}

// TokenWriter persists device token registrations.
type TokenWriter interface {
	CreateOrUpdate(ctx context.Context, userID, deviceID, token, platform string) (mongodb.FCMToken, error)
	Deactivate(ctx context.Context, userID, token string) error
}

// UpdateBroadcaster fans registration and settings changes out to the worker
// processes.
type UpdateBroadcaster interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// PreferenceUpdater refreshes the shared preference cache after a settings
// write.
type PreferenceUpdater interface {
	Update(ctx context.Context, userID string, prefs notify.Preferences)
}

type Server struct {
	notifications NotificationReader
	settings      SettingWriter
	tokens        TokenWriter
	broadcast     UpdateBroadcaster
	prefCache     PreferenceUpdater
	logger        *slog.Logger
}

func NewServer(
	notifications NotificationReader,
	settings SettingWriter,
	tokens TokenWriter,
	broadcast UpdateBroadcaster,
	prefCache PreferenceUpdater,
	logger *slog.Logger,
) *Server {
	return &Server{
		notifications: notifications,
		settings:      settings,
		tokens:        tokens,
		broadcast:     broadcast,
		prefCache:     prefCache,
		logger:        logger.With("component", "API"),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Put("/user-fcm-token", s.handleRegisterToken)
		r.Delete("/user-fcm-token", s.handleUnregisterToken)

		r.Get("/notification/preferences", s.handleGetPreferences)
		r.Put("/notification/preferences", s.handlePutPreferences)

		r.Get("/notification/{type}", s.handleListNotifications)
		r.Get("/notification/{type}/latest", s.handleLatestUnread)
		r.Patch("/notification/read/{id}", s.handleMarkRead)
		r.Patch("/notification/{type}", s.handleMarkAllRead)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userID extracts the caller's identity, writing a 401 when it is absent.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
