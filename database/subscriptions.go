package database

import (
	"context"

	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoSubscriptions struct {
	col *mongo.Collection
}

func (r *mongoSubscriptions) Create(ctx context.Context, sub models.Subscription) error {
	_, err := r.col.InsertOne(ctx, sub)
	return translate(err)
}

func (r *mongoSubscriptions) Delete(ctx context.Context, subscriber, channel bson.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"subscriber": subscriber, "channel": channel})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoSubscriptions) Exists(ctx context.Context, subscriber, channel bson.ObjectID) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"subscriber": subscriber, "channel": channel}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *mongoSubscriptions) CountSubscribers(ctx context.Context, channel bson.ObjectID) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"channel": channel})
	return n, translate(err)
}

func (r *mongoSubscriptions) CountSubscriptions(ctx context.Context, subscriber bson.ObjectID) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"subscriber": subscriber})
	return n, translate(err)
}

func (r *mongoSubscriptions) ListBySubscriber(ctx context.Context, subscriber bson.ObjectID) ([]models.Subscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"subscriber": subscriber}, opts)
	if err != nil {
		return nil, translate(err)
	}
	items := make([]models.Subscription, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
