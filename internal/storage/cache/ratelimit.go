package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	lastSentKeyFmt    = "raidenx:notification:%s:last_sent"
	unsentCountKeyFmt = "raidenx:notification:%s:unsent_count"

	// Skip counters outlive the send window so a quiet device still gets its
	// digest on the next burst.
	unsentTTL = 24 * time.Hour
)

// RateLimitStore tracks per-device send state: the millisecond timestamp of
// the last push and a counter of notifications skipped while throttled.
type RateLimitStore struct {
	c      *Redis
	window time.Duration
	now    func() time.Time
}

func NewRateLimitStore(c *Redis, window time.Duration) *RateLimitStore {
	return &RateLimitStore{c: c, window: window, now: time.Now}
}

// UnsentCount returns the accumulated skip count, zero when unset.
func (s *RateLimitStore) UnsentCount(ctx context.Context, token string) (int64, error) {
	var count int64
	err := s.c.GetJSON(ctx, fmt.Sprintf(unsentCountKeyFmt, token), &count)
	if errors.Is(err, Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read unsent count: %w", err)
	}
	return count, nil
}

// CanSend reports whether the window since the last push has elapsed. A
// device with no recorded send is always allowed.
func (s *RateLimitStore) CanSend(ctx context.Context, token string) (bool, error) {
	var lastSent int64
	err := s.c.GetJSON(ctx, fmt.Sprintf(lastSentKeyFmt, token), &lastSent)
	if errors.Is(err, Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read last sent timestamp: %w", err)
	}
	return s.now().UnixMilli()-lastSent >= s.window.Milliseconds(), nil
}

// MarkSent records the send time. The key's TTL equals the window so stale
// state expires on its own.
func (s *RateLimitStore) MarkSent(ctx context.Context, token string) error {
	key := fmt.Sprintf(lastSentKeyFmt, token)
	if err := s.c.SetJSON(ctx, key, s.now().UnixMilli(), s.window); err != nil {
		return fmt.Errorf("failed to record send timestamp: %w", err)
	}
	return nil
}

// IncrementUnsent bumps the skip counter for a throttled device.
func (s *RateLimitStore) IncrementUnsent(ctx context.Context, token string) error {
	count, err := s.UnsentCount(ctx, token)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(unsentCountKeyFmt, token)
	if err := s.c.SetJSON(ctx, key, count+1, unsentTTL); err != nil {
		return fmt.Errorf("failed to increment unsent count: %w", err)
	}
	return nil
}

// ResetUnsent zeroes the counter after a successful delivery.
func (s *RateLimitStore) ResetUnsent(ctx context.Context, token string) error {
	key := fmt.Sprintf(unsentCountKeyFmt, token)
	if err := s.c.SetJSON(ctx, key, int64(0), unsentTTL); err != nil {
		return fmt.Errorf("failed to reset unsent count: %w", err)
	}
	return nil
}
