// createtopics provisions the notification topics. Run it once per
// environment before starting the workers.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/config"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/platform/kafka"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "notify-createtopics")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := kafka.EnsureTopics(ctx, cfg.Kafka, logger); err != nil {
		logger.Error("Topic provisioning failed", "err", err)
		os.Exit(1)
	}
	logger.Info("Topics ready.")
}
