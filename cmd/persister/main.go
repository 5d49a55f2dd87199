// The persister consumes the persister topic and writes rendered
// notifications to Mongo.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/config"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/localcache"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/pipeline"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/platform/kafka"
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
	})).With("service", "notify-persister")
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
	prefs.Preload(ctx)

	persister := pipeline.NewPersister(mongodb.NewNotificationStore(db), prefs, logger)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.TopicPersister, persister.HandleBatch, logger)
	if err != nil {
		logger.Error("Kafka consumer failed", "err", err)
		os.Exit(1)
	}
	defer consumer.Close()

	logger.Info("Persister started.", "topic", kafka.TopicPersister, "group", cfg.Kafka.GroupID)
	if err := consumer.Run(ctx); err != nil {
		logger.Error("Consumer terminated", "err", err)
		os.Exit(1)
	}
	logger.Info("Persister shut down cleanly.")
}
