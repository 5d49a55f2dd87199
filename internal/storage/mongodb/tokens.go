package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FCMToken is one registered device. A device re-registering overwrites its
// previous token rather than accumulating stale ones.
type FCMToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"userId"`
	DeviceID  string             `bson:"deviceId" json:"deviceId"`
	Token     string             `bson:"token" json:"token"`
	Platform  string             `bson:"platform" json:"platform"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TokenStore is the user_fcm_tokens collection.
type TokenStore struct {
	coll *mongo.Collection
}

func NewTokenStore(db *mongo.Database) *TokenStore {
	return &TokenStore{coll: db.Collection(collTokens)}
}

// AllActive returns every ACTIVE token across all users.
func (s *TokenStore) AllActive(ctx context.Context) ([]FCMToken, error) {
	return s.find(ctx, bson.M{"status": StatusActive})
}

// FindByUser returns the user's ACTIVE tokens.
func (s *TokenStore) FindByUser(ctx context.Context, userID string) ([]FCMToken, error) {
	return s.find(ctx, bson.M{"userId": userID, "status": StatusActive})
}

func (s *TokenStore) find(ctx context.Context, filter bson.M) ([]FCMToken, error) {
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list fcm tokens: %w", err)
	}
	defer cur.Close(ctx)

	var tokens []FCMToken
	if err := cur.All(ctx, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode fcm tokens: %w", err)
	}
	return tokens, nil
}

// CreateOrUpdate registers a token keyed by (userId, deviceId) and
// reactivates the record if it was previously deactivated.
func (s *TokenStore) CreateOrUpdate(ctx context.Context, userID, deviceID, token, platform string) (FCMToken, error) {
	now := time.Now().UTC()
	filter := bson.M{"userId": userID, "deviceId": deviceID}
	update := bson.M{
		"$set": bson.M{
			"token":     token,
			"platform":  platform,
			"status":    StatusActive,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc FCMToken
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return FCMToken{}, fmt.Errorf("failed to upsert fcm token: %w", err)
	}
	return doc, nil
}

// Deactivate marks the user's record for this token INACTIVE. Deactivating a
// token that is not registered is a no-op.
func (s *TokenStore) Deactivate(ctx context.Context, userID, token string) error {
	filter := bson.M{"userId": userID, "token": token}
	update := bson.M{"$set": bson.M{"status": StatusInactive, "updatedAt": time.Now().UTC()}}

	if _, err := s.coll.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to deactivate fcm token: %w", err)
	}
	return nil
}

// ActiveTokens and ActiveTokensByUser adapt the store to the cache layer's
// source interface, flattening records to bare token strings.

func (s *TokenStore) ActiveTokens(ctx context.Context) (map[string][]string, error) {
	records, err := s.AllActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, r := range records {
		out[r.UserID] = append(out[r.UserID], r.Token)
	}
	return out, nil
}

func (s *TokenStore) ActiveTokensByUser(ctx context.Context, userID string) ([]string, error) {
	records, err := s.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(records))
	for _, r := range records {
		tokens = append(tokens, r.Token)
	}
	return tokens, nil
}
