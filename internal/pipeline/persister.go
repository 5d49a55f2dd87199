package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

// NotificationWriter persists one notification record.
type NotificationWriter interface {
	Insert(ctx context.Context, n notify.Notification) error
}

// Persister turns consumed event batches into durable notification rows.
// Order events coalesce to the last event of their group; Transaction and
// Account events persist one row each.
type Persister struct {
	writer NotificationWriter
	prefs  PreferenceSource
	logger *slog.Logger
}

func NewPersister(writer NotificationWriter, prefs PreferenceSource, logger *slog.Logger) *Persister {
	return &Persister{
		writer: writer,
		prefs:  prefs,
		logger: logger.With("component", "Persister"),
	}
}

// HandleBatch processes the []Event payload of one bus record. Individual
// write failures are logged and the loop continues; returning nil lets the
// consumer commit the offset.
func (p *Persister) HandleBatch(ctx context.Context, events []notify.Event) error {
	if len(events) == 0 {
		p.logger.Warn("Received empty notification batch, skipping processing.")
		return nil
	}
	p.logger.Info("Received notification batch.", "count", len(events))

	grouped := GroupByUser(ctx, events, p.prefs, p.logger)
	if len(grouped) == 0 {
		p.logger.Info("No notifications to persist, offset will still be committed.")
		return nil
	}

	for key, list := range grouped {
		switch key.Type {
		case notify.TypeOrder:
			last := list[len(list)-1]
			p.insert(ctx, key, last)
		case notify.TypeTransaction, notify.TypeAccount:
			for _, r := range list {
				p.insert(ctx, key, r)
			}
		default:
			p.logger.Warn("Unsupported notification type for persistence.", "type", key.Type.Label())
		}
	}

	return nil
}

func (p *Persister) insert(ctx context.Context, key GroupKey, r Rendered) {
	at := time.UnixMilli(r.Timestamp).UTC()
	n := notify.Notification{
		UserID:    key.UserID,
		Type:      key.Type.Label(),
		Title:     key.Type.Title(),
		Message:   r.Message,
		CreatedAt: at,
		UpdatedAt: at,
		IsRead:    false,
	}
	if err := p.writer.Insert(ctx, n); err != nil {
		p.logger.Error("Failed to persist notification.", "user_id", key.UserID, "err", err)
		return
	}
	p.logger.Info("Persisted notification.", "user_id", key.UserID, "type", n.Type)
}
