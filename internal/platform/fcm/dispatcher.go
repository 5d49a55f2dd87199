// Package fcm sends push notifications through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/cenkalti/backoff/v4"
)

// Client is the subset of the Firebase Messaging API the dispatcher uses.
// *messaging.Client satisfies it; tests substitute a fake.
type Client interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Dispatcher delivers one notification per device token, retrying transient
// transport failures before giving up.
type Dispatcher struct {
	client Client
	logger *slog.Logger
}

func NewDispatcher(client Client, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		logger: logger.With("component", "FCMDispatcher"),
	}
}

// Send pushes title/body to a single token. Unregistered or malformed tokens
// fail fast so the caller can prune them; other failures are retried twice.
func (d *Dispatcher) Send(ctx context.Context, token, title, body string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		_, err := d.client.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if messaging.IsInvalidArgument(err) || messaging.IsRegistrationTokenNotRegistered(err) {
			return backoff.Permanent(err)
		}
		d.logger.Warn("FCM send failed, retrying.", "attempt", attempt, "err", err)
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 2), ctx)); err != nil {
		return fmt.Errorf("fcm send to token failed after %d attempts: %w", attempt, err)
	}
	return nil
}
