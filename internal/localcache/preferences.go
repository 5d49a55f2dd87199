// Package localcache keeps per-process copies of notification preferences and
// device tokens so the hot pipeline path rarely touches Mongo.
package localcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/storage/cache"
	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

const (
	preferenceKeyFmt = "raidenx:user:notification:preferences:%s"
	preferenceTTL    = time.Hour
)

// SettingSource loads preferences from the backing store.
type SettingSource interface {
	All(ctx context.Context) (map[string]notify.Preferences, error)
	FindByUser(ctx context.Context, userID string) (*notify.Preferences, error)
}

// PreferenceCache resolves a user's preferences through three tiers: local
// map, Redis, then the settings store. Users with no stored settings get the
// all-enabled defaults.
type PreferenceCache struct {
	mu    sync.RWMutex
	prefs map[string]notify.Preferences

	kv     *cache.Redis
	store  SettingSource
	logger *slog.Logger
}

func NewPreferenceCache(kv *cache.Redis, store SettingSource, logger *slog.Logger) *PreferenceCache {
	return &PreferenceCache{
		prefs:  make(map[string]notify.Preferences),
		kv:     kv,
		store:  store,
		logger: logger.With("component", "PreferenceCache"),
	}
}

// Preload warms the local map from the store. A failure is logged and the
// cache starts cold; lookups fall through per user.
func (c *PreferenceCache) Preload(ctx context.Context) {
	all, err := c.store.All(ctx)
	if err != nil {
		c.logger.Warn("Failed to preload preferences, starting cold.", "err", err)
		return
	}

	c.mu.Lock()
	for userID, p := range all {
		c.prefs[userID] = p
	}
	c.mu.Unlock()
	c.logger.Info("Preferences preloaded.", "users", len(all))
}

// Get resolves one user. Store results are written back to Redis and the
// local map; defaults for unknown users are remembered locally only, so a
// later save is picked up through the Redis tier.
func (c *PreferenceCache) Get(ctx context.Context, userID string) notify.Preferences {
	c.mu.RLock()
	p, ok := c.prefs[userID]
	c.mu.RUnlock()
	if ok {
		return p
	}

	key := fmt.Sprintf(preferenceKeyFmt, userID)

	var cached notify.Preferences
	err := c.kv.GetJSON(ctx, key, &cached)
	if err == nil {
		c.remember(userID, cached)
		return cached
	}
	if !errors.Is(err, cache.Nil) {
		c.logger.Warn("Preference cache read failed.", "user_id", userID, "err", err)
	}

	stored, err := c.store.FindByUser(ctx, userID)
	if err != nil {
		c.logger.Warn("Preference lookup failed, using defaults.", "user_id", userID, "err", err)
		return notify.DefaultPreferences()
	}
	if stored == nil {
		defaults := notify.DefaultPreferences()
		c.remember(userID, defaults)
		return defaults
	}

	if err := c.kv.SetJSON(ctx, key, *stored, preferenceTTL); err != nil {
		c.logger.Warn("Preference cache write failed.", "user_id", userID, "err", err)
	}
	c.remember(userID, *stored)
	return *stored
}

// GetBatch resolves a set of users with one lookup per cache miss. It never
// fails; unresolvable users soften to defaults.
func (c *PreferenceCache) GetBatch(ctx context.Context, userIDs []string) map[string]notify.Preferences {
	out := make(map[string]notify.Preferences, len(userIDs))
	for _, id := range userIDs {
		if _, done := out[id]; done {
			continue
		}
		out[id] = c.Get(ctx, id)
	}
	return out
}

// Update stores fresh preferences in Redis and the local map. Called by the
// API after a successful settings write.
func (c *PreferenceCache) Update(ctx context.Context, userID string, p notify.Preferences) {
	key := fmt.Sprintf(preferenceKeyFmt, userID)
	if err := c.kv.SetJSON(ctx, key, p, preferenceTTL); err != nil {
		c.logger.Warn("Preference cache write failed.", "user_id", userID, "err", err)
	}
	c.remember(userID, p)
}

func (c *PreferenceCache) remember(userID string, p notify.Preferences) {
	c.mu.Lock()
	c.prefs[userID] = p
	c.mu.Unlock()
}
