// produce is a smoke-test tool: it reads a JSON []Event batch from stdin and
// publishes it to one of the notification topics.
//
//	echo '[{"user_id":"U1","notif_type":"Order","timestamp":1700000000000,
//	  "metadata":{"Order":{"order_id":42,"status":"NEW"}}}]' | produce persister
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/config"
	"github.com/Sotatek-NgonVu/push-notify-service/internal/platform/kafka"
	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "notify-produce")

	topic := kafka.TopicPersister
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "persister":
			topic = kafka.TopicPersister
		case "publisher":
			topic = kafka.TopicPublisher
		default:
			logger.Error("Unknown topic argument", "arg", os.Args[1])
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	var events []notify.Event
	if err := json.NewDecoder(os.Stdin).Decode(&events); err != nil {
		logger.Error("Failed to decode event batch from stdin", "err", err)
		os.Exit(1)
	}

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Error("Kafka producer failed", "err", err)
		os.Exit(1)
	}
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := producer.PublishEvents(ctx, topic, "", events); err != nil {
		logger.Error("Publish failed", "err", err)
		os.Exit(1)
	}
}
