package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/config"
	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

// Producer publishes pre-batched event vectors onto a notification topic.
// Upstream services hold one per process.
type Producer struct {
	client *kgo.Client
	logger *slog.Logger
}

func NewProducer(cfg config.Kafka, logger *slog.Logger) (*Producer, error) {
	opts := append(commonOpts(cfg),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if !cfg.EnableIdempotence {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Producer{client: client, logger: logger.With("component", "Producer")}, nil
}

// PublishEvents encodes the batch as one MessagePack record and produces it
// synchronously. The whole batch shares one record so consumers see it as a
// unit.
func (p *Producer) PublishEvents(ctx context.Context, topic string, key string, events []notify.Event) error {
	payload, err := msgpack.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode event batch: %w", err)
	}

	rec := &kgo.Record{Topic: topic, Value: payload}
	if key != "" {
		rec.Key = []byte(key)
	}

	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}

	p.logger.Info("Published event batch.", "topic", topic, "count", len(events))
	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}
