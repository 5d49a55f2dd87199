// The admin API serves token registration, notification settings and the
// notification read-model over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/api"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/config"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/localcache"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/storage/cache"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/storage/mongodb"
)

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "notify-admin-api")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	db, err := mongodb.Connect(ctx, cfg.DatabaseURI, cfg.DatabaseName)
	if err != nil {
		logger.Error("Mongo connection failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	kv, err := cache.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Error("Redis connection failed", "err", err)
		os.Exit(1)
	}
	defer kv.Close()

	settings := mongodb.NewSettingStore(db)
	prefs := localcache.NewPreferenceCache(kv, settings, logger)

	server := api.NewServer(
		mongodb.NewNotificationStore(db),
		settings,
		mongodb.NewTokenStore(db),
		kv,
		prefs,
		logger,
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("Admin API listening.", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server failed", "err", err)
		os.Exit(1)
	}
	logger.Info("Admin API shut down cleanly.")
}
