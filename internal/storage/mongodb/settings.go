package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

type settingDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"userId"`
	Announcement bool               `bson:"announcement"`
	Account      bool               `bson:"account"`
	Campaign     bool               `bson:"campaign"`
	Transaction  bool               `bson:"transaction"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// SettingStore is the user_notification_settings collection. Users without a
// document fall back to the all-enabled defaults.
type SettingStore struct {
	coll *mongo.Collection
}

func NewSettingStore(db *mongo.Database) *SettingStore {
	return &SettingStore{coll: db.Collection(collSettings)}
}

// All returns every stored setting keyed by user ID.
func (s *SettingStore) All(ctx context.Context) (map[string]notify.Preferences, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list notification settings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []settingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode notification settings: %w", err)
	}

	out := make(map[string]notify.Preferences, len(docs))
	for _, d := range docs {
		out[d.UserID] = notify.Preferences{
			Announcement: d.Announcement,
			Account:      d.Account,
			Campaign:     d.Campaign,
			Transaction:  d.Transaction,
		}
	}
	return out, nil
}

// FindByUser returns nil when the user has never saved settings.
func (s *SettingStore) FindByUser(ctx context.Context, userID string) (*notify.Preferences, error) {
	var doc settingDoc
	err := s.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}
	return &notify.Preferences{
		Announcement: doc.Announcement,
		Account:      doc.Account,
		Campaign:     doc.Campaign,
		Transaction:  doc.Transaction,
	}, nil
}

// Upsert writes the user's settings, creating the document on first save.
func (s *SettingStore) Upsert(ctx context.Context, userID string, prefs notify.Preferences) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"announcement": prefs.Announcement,
			"account":      prefs.Account,
			"campaign":     prefs.Campaign,
			"transaction":  prefs.Transaction,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	_, err := s.coll.UpdateOne(ctx, bson.M{"userId": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert notification settings: %w", err)
	}
	return nil
}
