package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/config"
)

// Topic retention mirrors the platform default of thirty days.
var topicConfigs = map[string]*string{
	"retention.ms":   strPtr("2592000000"),
	"cleanup.policy": strPtr("delete"),
}

func strPtr(s string) *string { return &s }

// EnsureTopics creates the notification topics if they do not already exist.
// Existing topics are left untouched, including their partition counts.
func EnsureTopics(ctx context.Context, cfg config.Kafka, logger *slog.Logger) error {
	client, err := kgo.NewClient(commonOpts(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create kafka admin client: %w", err)
	}
	defer client.Close()

	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, cfg.Partitions, cfg.ReplicationFactor, topicConfigs,
		TopicPersister, TopicPublisher)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}

	for _, resp := range resps.Sorted() {
		if resp.Err != nil {
			if errors.Is(resp.Err, kerr.TopicAlreadyExists) {
				logger.Info("Topic already exists.", "topic", resp.Topic)
				continue
			}
			return fmt.Errorf("failed to create topic %s: %w", resp.Topic, resp.Err)
		}
		logger.Info("Topic created.", "topic", resp.Topic,
			"partitions", cfg.Partitions, "replication_factor", cfg.ReplicationFactor)
	}
	return nil
}
