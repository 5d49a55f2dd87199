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

// ErrNotFound is returned when a lookup by ID matches nothing owned by the
// requesting user.
var ErrNotFound = errors.New("notification not found")

type notificationDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Type      string             `bson:"type"`
	Title     string             `bson:"title"`
	Message   string             `bson:"message"`
	IsRead    bool               `bson:"isRead"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d notificationDoc) toRecord() notify.Notification {
	return notify.Notification{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Type:      d.Type,
		Title:     d.Title,
		Message:   d.Message,
		IsRead:    d.IsRead,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// NotificationStore is the user_notifications collection.
type NotificationStore struct {
	coll *mongo.Collection
}

func NewNotificationStore(db *mongo.Database) *NotificationStore {
	return &NotificationStore{coll: db.Collection(collNotifications)}
}

func (s *NotificationStore) Insert(ctx context.Context, n notify.Notification) error {
	doc := notificationDoc{
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// List returns one page of a user's notifications of the given type, newest
// first. Page numbering starts at 1.
func (s *NotificationStore) List(ctx context.Context, userID, notifType string, page, limit int64) ([]notify.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	filter := bson.M{"userId": userID, "type": notifType}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cur.Close(ctx)

	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}

	records := make([]notify.Notification, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.toRecord())
	}
	return records, total, nil
}

// MarkRead flags one notification as read. Ownership is part of the filter so
// a user cannot touch another user's records.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, id string) (notify.Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notify.Notification{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	update := bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc notificationDoc
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "userId": userID}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notify.Notification{}, ErrNotFound
	}
	if err != nil {
		return notify.Notification{}, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return doc.toRecord(), nil
}

// MarkAllRead flags every unread notification of the given type and returns
// how many were updated.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID, notifType string) (int64, error) {
	filter := bson.M{"userId": userID, "type": notifType, "isRead": false}
	update := bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now().UTC()}}

	res, err := s.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

// LatestUnread returns the user's most recent unread notification of the
// given type, or ErrNotFound when there is none.
func (s *NotificationStore) LatestUnread(ctx context.Context, userID, notifType string) (notify.Notification, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var doc notificationDoc
	err := s.coll.FindOne(ctx, bson.M{"userId": userID, "type": notifType, "isRead": false}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notify.Notification{}, ErrNotFound
	}
	if err != nil {
		return notify.Notification{}, fmt.Errorf("failed to load latest unread notification: %w", err)
	}
	return doc.toRecord(), nil
}
