// The publisher consumes the publisher topic and pushes notifications to
// devices through FCM, rate limited per token.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/config"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/localcache"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/pipeline"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/platform/fcm"
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
	})).With("service", "notify-publisher")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}
	if cfg.FirebaseCredentialsPath == "" {
		logger.Error("Config failed", "err", "FIREBASE_CREDENTIALS_PATH is required")
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

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.FirebaseCredentialsPath))
	if err != nil {
		logger.Error("Firebase init failed", "err", err)
		os.Exit(1)
	}
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		logger.Error("Firebase messaging client failed", "err", err)
		os.Exit(1)
	}

	settings := mongodb.NewSettingStore(db)
	prefs := localcache.NewPreferenceCache(kv, settings, logger)
	prefs.Preload(ctx)

	tokens := localcache.NewTokenCache(mongodb.NewTokenStore(db), logger)
	tokens.Preload(ctx)
	go tokens.Subscribe(ctx, kv)

	limiter := cache.NewRateLimitStore(kv, cfg.RateLimitWindow)
	sender := fcm.NewDispatcher(messagingClient, logger)

	publisher := pipeline.NewPublisher(tokens, limiter, sender, prefs, cfg.SendConcurrency, logger)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.TopicPublisher, publisher.HandleBatch, logger)
	if err != nil {
		logger.Error("Kafka consumer failed", "err", err)
		os.Exit(1)
	}
	defer consumer.Close()

	logger.Info("Publisher started.",
		"topic", kafka.TopicPublisher, "group", cfg.Kafka.GroupID,
		"concurrency", cfg.SendConcurrency, "window", cfg.RateLimitWindow)
	if err := consumer.Run(ctx); err != nil {
		logger.Error("Consumer terminated", "err", err)
		os.Exit(1)
	}
	logger.Info("Publisher shut down cleanly.")
}
