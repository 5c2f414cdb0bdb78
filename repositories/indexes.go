package repositories

import (
	"context"
	"fmt"

	"github.com/prashant564/Courses24-API/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BootcampsCollection = "bootcamps"
	CoursesCollection   = "courses"
	ReviewsCollection   = "reviews"
	UsersCollection     = "users"
)

// EnsureIndexes creates the unique and geo indexes the services rely on.
// Creating an index that already exists is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		BootcampsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "slug", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		CoursesCollection: {
			{Keys: bson.D{{Key: "bootcamp", Value: 1}}},
		},
		ReviewsCollection: {
			{Keys: bson.D{{Key: "bootcamp", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
		logging.Logger.Infof("Event ID: ENSURE_INDEXES, Description: Indexes on collection '%s' are in place", name)
	}
	return nil
}
