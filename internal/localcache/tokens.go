package localcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/storage/cache"
)

// UpdateChannel carries token registration changes from the API to the
// publisher workers.
const UpdateChannel = "vdax:notification:update_fcm_token"

const (
	ActionAdd    = "Add"
	ActionRemove = "Remove"
)

// TokenUpdate is the pub/sub payload for one registration change.
type TokenUpdate struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Action string `json:"action"`
}

// TokenSource loads active tokens from the backing store.
type TokenSource interface {
	ActiveTokens(ctx context.Context) (map[string][]string, error)
	ActiveTokensByUser(ctx context.Context, userID string) ([]string, error)
}

// TokenCache keeps each user's active device tokens in memory, kept current
// by pub/sub updates. Empty results are cached too, so users with no devices
// cost one store lookup total.
type TokenCache struct {
	mu     sync.RWMutex
	tokens map[string][]string

	store  TokenSource
	logger *slog.Logger
}

func NewTokenCache(store TokenSource, logger *slog.Logger) *TokenCache {
	return &TokenCache{
		tokens: make(map[string][]string),
		store:  store,
		logger: logger.With("component", "TokenCache"),
	}
}

// Preload warms the map with every active token. A failure is logged and the
// cache starts cold.
func (c *TokenCache) Preload(ctx context.Context) {
	all, err := c.store.ActiveTokens(ctx)
	if err != nil {
		c.logger.Warn("Failed to preload fcm tokens, starting cold.", "err", err)
		return
	}

	c.mu.Lock()
	for userID, tokens := range all {
		c.tokens[userID] = tokens
	}
	c.mu.Unlock()
	c.logger.Info("FCM tokens preloaded.", "users", len(all))
}

// Get returns the user's tokens, loading from the store on a miss. Callers
// receive a copy.
func (c *TokenCache) Get(ctx context.Context, userID string) ([]string, error) {
	c.mu.RLock()
	tokens, ok := c.tokens[userID]
	c.mu.RUnlock()
	if ok {
		return slices.Clone(tokens), nil
	}

	fresh, err := c.store.ActiveTokensByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		fresh = []string{}
	}

	c.mu.Lock()
	c.tokens[userID] = fresh
	c.mu.Unlock()
	return slices.Clone(fresh), nil
}

// Apply folds one registration change into the map. Unknown users are
// ignored; their first Get loads the authoritative state anyway.
func (c *TokenCache) Apply(update TokenUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tokens, ok := c.tokens[update.UserID]
	if !ok {
		return
	}

	switch update.Action {
	case ActionAdd:
		if !slices.Contains(tokens, update.Token) {
			c.tokens[update.UserID] = append(tokens, update.Token)
		}
	case ActionRemove:
		tokens = slices.DeleteFunc(tokens, func(t string) bool { return t == update.Token })
		if len(tokens) == 0 {
			// Prune so the next lookup reloads from the store.
			delete(c.tokens, update.UserID)
		} else {
			c.tokens[update.UserID] = tokens
		}
	default:
		c.logger.Warn("Ignoring token update with unknown action.", "action", update.Action)
	}
}

// Subscribe listens for registration changes until the context is cancelled.
// Run it in its own goroutine.
func (c *TokenCache) Subscribe(ctx context.Context, kv *cache.Redis) {
	sub := kv.Subscribe(ctx, UpdateChannel)
	defer sub.Close()

	c.logger.Info("Subscribed to token updates.", "channel", UpdateChannel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var update TokenUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				c.logger.Error("Failed to decode token update.", "payload", msg.Payload, "err", err)
				continue
			}
			c.Apply(update)
		}
	}
}
