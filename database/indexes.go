package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the unique constraints the services rely on to
// reject concurrent duplicate writes, plus the listing indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		VideosCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		PostsCollection: {
			{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "targetKind", Value: 1}, {Key: "targetId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "parentComment", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		LikesCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "targetKind", Value: 1}, {Key: "targetId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "targetKind", Value: 1}, {Key: "targetId", Value: 1}, {Key: "liked", Value: 1}}},
		},
		SubscriptionsCollection: {
			{
				Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "channel", Value: 1}}},
		},
	}

	for name, indexes := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
