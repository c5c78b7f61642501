package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FailedNotificationRepository keeps undelivered notifications for a later resend.
type FailedNotificationRepository struct {
	collection *mongo.Collection
}

func NewFailedNotificationRepository(db *mongo.Database, collectionName string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collectionName)}
}

// Record stores a pending entry for the admin notification target.
func (r *FailedNotificationRepository) Record(ctx context.Context, body NotificationBody, cause error, attempts int) error {
	now := time.Now().UTC()
	doc := FailedNotificationDocument{
		ID:          primitive.NewObjectID(),
		Target:      "admin_notification",
		Payload:     body,
		Error:       cause.Error(),
		Attempts:    attempts,
		Status:      "pending",
		CreatedAt:   now,
		LastTriedAt: now,
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}
