package database

import (
	"context"

	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type mongoLikes struct {
	col *mongo.Collection
}

func (r *mongoLikes) Find(ctx context.Context, userID bson.ObjectID, target models.Target) (models.Like, error) {
	filter := targetFilter(target)
	filter["userId"] = userID

	var like models.Like
	if err := r.col.FindOne(ctx, filter).Decode(&like); err != nil {
		return models.Like{}, translate(err)
	}
	return like, nil
}

func (r *mongoLikes) Create(ctx context.Context, like models.Like) error {
	_, err := r.col.InsertOne(ctx, like)
	return translate(err)
}

func (r *mongoLikes) Delete(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, r.col, id)
}

func (r *mongoLikes) Count(ctx context.Context, target models.Target, liked *bool) (int64, error) {
	filter := targetFilter(target)
	if liked != nil {
		filter["liked"] = *liked
	}
	n, err := r.col.CountDocuments(ctx, filter)
	return n, translate(err)
}

func (r *mongoLikes) DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []bson.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"targetKind": kind, "targetId": bson.M{"$in": ids}})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}
