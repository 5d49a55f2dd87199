package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/config"
	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

// BatchHandler processes the decoded []Event payload of one bus record.
// A nil return acknowledges the record; an error terminates the consumer
// without committing, leaving redelivery to the group on restart.
type BatchHandler func(ctx context.Context, events []notify.Event) error

// Consumer is a manual-commit group consumer over one topic. Records are
// handled one at a time and their offset committed only after the handler
// returns, so a crash never skips uncommitted work.
type Consumer struct {
	client  *kgo.Client
	topic   string
	handler BatchHandler
	logger  *slog.Logger
}

func NewConsumer(cfg config.Kafka, topic string, handler BatchHandler, logger *slog.Logger) (*Consumer, error) {
	logger = logger.With("component", "Consumer", "topic", topic)

	opts := append(commonOpts(cfg),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		kgo.SessionTimeout(sessionTimeout),
		kgo.OnPartitionsAssigned(func(_ context.Context, _ *kgo.Client, assigned map[string][]int32) {
			logger.Info("Partitions assigned.", "partitions", assigned)
		}),
		kgo.OnPartitionsRevoked(func(_ context.Context, _ *kgo.Client, revoked map[string][]int32) {
			logger.Info("Partitions revoked.", "partitions", revoked)
		}),
	)

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &Consumer{client: client, topic: topic, handler: handler, logger: logger}, nil
}

// Run polls until the context is cancelled. Undecodable payloads are logged
// and committed past (a poison record must not block the partition); handler
// errors stop the loop so the supervisor can restart from the last commit.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Consumer loop started.", "topic", c.topic)

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("Fetch error.", "topic", topic, "partition", partition, "err", err)
		})

		iter := fetches.RecordIter()
		for !iter.Done() {
			rec := iter.Next()
			c.logger.Info("Received message.",
				"partition", rec.Partition, "offset", rec.Offset)

			var events []notify.Event
			if err := msgpack.Unmarshal(rec.Value, &events); err != nil {
				c.logger.Error("Failed to decode record payload, skipping.",
					"partition", rec.Partition, "offset", rec.Offset, "err", err)
			} else if err := c.handler(ctx, events); err != nil {
				return fmt.Errorf("batch handler failed at partition %d offset %d: %w",
					rec.Partition, rec.Offset, err)
			}

			if err := c.client.CommitRecords(ctx, rec); err != nil {
				// Redelivery after restart is tolerated; keep consuming.
				c.logger.Error("Failed to commit offset.",
					"partition", rec.Partition, "offset", rec.Offset, "err", err)
			}
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
