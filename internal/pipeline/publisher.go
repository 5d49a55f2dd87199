package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

const (
	digestTitle      = "You have many notifications"
	digestBodyFormat = "You have %d unread notifications. Please check your app."
)

// TokenSource answers "which active device tokens does this user have".
type TokenSource interface {
	Get(ctx context.Context, userID string) ([]string, error)
}

// RateLimiter is the per-token bookkeeping in the KV store.
type RateLimiter interface {
	// UnsentCount returns the number of sends skipped since the last
	// successful one, zero on a cold token.
	UnsentCount(ctx context.Context, token string) (int64, error)
	// CanSend reports whether the rate window since the last successful send
	// has elapsed.
	CanSend(ctx context.Context, token string) (bool, error)
	MarkSent(ctx context.Context, token string) error
	IncrementUnsent(ctx context.Context, token string) error
	ResetUnsent(ctx context.Context, token string) error
}

// Sender delivers one push message to one device token. Retry policy lives
// behind this interface.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// Publisher delivers the most relevant current event of each group to every
// active device of the group's user, throttled per device with a digest
// fallback for tokens that accumulated skips.
type Publisher struct {
	tokens      TokenSource
	limiter     RateLimiter
	sender      Sender
	prefs       PreferenceSource
	concurrency int
	logger      *slog.Logger
}

func NewPublisher(
	tokens TokenSource,
	limiter RateLimiter,
	sender Sender,
	prefs PreferenceSource,
	concurrency int,
	logger *slog.Logger,
) *Publisher {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Publisher{
		tokens:      tokens,
		limiter:     limiter,
		sender:      sender,
		prefs:       prefs,
		concurrency: concurrency,
		logger:      logger.With("component", "Publisher"),
	}
}

// HandleBatch groups the batch, then fans out one dispatch per (group,
// token) pair with bounded concurrency. Per-token failures never fail the
// batch; returning nil lets the consumer commit the offset.
func (p *Publisher) HandleBatch(ctx context.Context, events []notify.Event) error {
	if len(events) == 0 {
		p.logger.Warn("Received empty notification batch, skipping processing.")
		return nil
	}
	p.logger.Info("Received notification batch.", "count", len(events))

	grouped := GroupByUser(ctx, events, p.prefs, p.logger)

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)

	for key, list := range grouped {
		last := list[len(list)-1]
		title := key.Type.Title()

		tokens, err := p.tokens.Get(ctx, key.UserID)
		if err != nil {
			p.logger.Error("Failed to load device tokens.", "user_id", key.UserID, "err", err)
			continue
		}
		if len(tokens) == 0 {
			p.logger.Warn("No FCM tokens found for user, skipping notification.", "user_id", key.UserID)
			continue
		}

		for _, token := range tokens {
			userID, token, body := key.UserID, token, last.Message
			g.Go(func() error {
				p.dispatch(ctx, userID, token, title, body)
				return nil
			})
		}
	}

	_ = g.Wait()
	return nil
}

// dispatch runs the per-token state machine: read rate state, either count
// the skip or send (digest payload when more than one send was skipped), and
// update the bookkeeping after a successful send.
func (p *Publisher) dispatch(ctx context.Context, userID, token, title, body string) {
	unsent, err := p.limiter.UnsentCount(ctx, token)
	if err != nil {
		p.logger.Warn("Failed to read unsent count, assuming zero.", "user_id", userID, "err", err)
		unsent = 0
	}

	allowed, err := p.limiter.CanSend(ctx, token)
	if err != nil {
		p.logger.Warn("Failed to read rate limit state, allowing send.", "user_id", userID, "err", err)
		allowed = true
	}
	if !allowed {
		if err := p.limiter.IncrementUnsent(ctx, token); err != nil {
			p.logger.Warn("Failed to update unsent notification count.", "user_id", userID, "err", err)
		}
		p.logger.Warn("Skipping notification due to rate limiting.", "user_id", userID)
		return
	}

	if unsent > 1 {
		title = digestTitle
		body = fmt.Sprintf(digestBodyFormat, unsent)
	}

	if err := p.sender.Send(ctx, token, title, body); err != nil {
		p.logger.Error("Failed to send notification.", "user_id", userID, "err", err)
		return
	}

	if err := p.limiter.MarkSent(ctx, token); err != nil {
		p.logger.Warn("Failed to update rate limit state.", "user_id", userID, "err", err)
	}
	if err := p.limiter.ResetUnsent(ctx, token); err != nil {
		p.logger.Warn("Failed to reset unsent notification count.", "user_id", userID, "err", err)
	}
	p.logger.Info("Notification sent.", "user_id", userID)
}
