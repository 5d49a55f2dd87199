// Package mongodb persists notifications, per-user settings and FCM device
// tokens.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collNotifications = "user_notifications"
	collSettings      = "user_notification_settings"
	collTokens        = "user_fcm_tokens"
)

// Token lifecycle states. Deactivated tokens are kept for audit.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Connect dials the cluster and pings it so startup fails fast on a bad URI.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client.Database(dbName), nil
}
