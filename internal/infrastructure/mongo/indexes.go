package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the admissions team queries by. It is
// idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database, applications, failedNotifications string) error {
	applicationIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_application_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "country", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_application_country_timestamp"),
		},
	}
	if _, err := db.Collection(applications).Indexes().CreateMany(ctx, applicationIndexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", applications, err)
	}

	if _, err := db.Collection(failedNotifications).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_failed_status_created"),
		},
	}); err != nil {
		return fmt.Errorf("create %s indexes: %w", failedNotifications, err)
	}

	return nil
}
