package database

import (
	"context"
	"time"

	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoComments struct {
	col *mongo.Collection
}

func targetFilter(target models.Target) bson.M {
	return bson.M{"targetKind": target.Kind, "targetId": target.ID}
}

func (r *mongoComments) Create(ctx context.Context, comment models.Comment) error {
	if comment.Likes == nil {
		comment.Likes = []bson.ObjectID{}
	}
	_, err := r.col.InsertOne(ctx, comment)
	return translate(err)
}

func (r *mongoComments) FindByID(ctx context.Context, id bson.ObjectID) (models.Comment, error) {
	var comment models.Comment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return models.Comment{}, translate(err)
	}
	return comment, nil
}

func (r *mongoComments) ListTopLevel(ctx context.Context, target models.Target, sort models.CommentSort, page Page) ([]models.Comment, int64, error) {
	filter := targetFilter(target)
	filter["parentComment"] = nil

	var order bson.D
	switch sort {
	case models.SortOldest:
		order = bson.D{{Key: "createdAt", Value: 1}}
	case models.SortPopular:
		order = bson.D{{Key: "likesCount", Value: -1}, {Key: "createdAt", Value: -1}}
	default:
		order = bson.D{{Key: "createdAt", Value: -1}}
	}

	// likesCount is derived from the embedded like references and only
	// exists inside the pipeline.
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$addFields", Value: bson.M{"likesCount": bson.M{"$size": bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}}}}},
		{{Key: "$sort", Value: order}},
		{{Key: "$skip", Value: page.Skip}},
		{{Key: "$limit", Value: page.Limit}},
		{{Key: "$project", Value: bson.M{"likesCount": 0}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, translate(err)
	}
	items := make([]models.Comment, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}
	return items, total, nil
}

func (r *mongoComments) ListReplies(ctx context.Context, parents []bson.ObjectID) ([]models.Comment, error) {
	items := make([]models.Comment, 0)
	if len(parents) == 0 {
		return items, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"parentComment": bson.M{"$in": parents}}, opts)
	if err != nil {
		return nil, translate(err)
	}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mongoComments) ListByTarget(ctx context.Context, target models.Target) ([]models.Comment, error) {
	cursor, err := r.col.Find(ctx, targetFilter(target))
	if err != nil {
		return nil, translate(err)
	}
	items := make([]models.Comment, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mongoComments) CountByTarget(ctx context.Context, target models.Target) (int64, error) {
	n, err := r.col.CountDocuments(ctx, targetFilter(target))
	return n, translate(err)
}

func (r *mongoComments) UpdateContent(ctx context.Context, id bson.ObjectID, content string, now time.Time) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"content":   content,
			"isEdited":  true,
			"updatedAt": now,
		},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoComments) AddLike(ctx context.Context, id, userID bson.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID}})
	return translate(err)
}

func (r *mongoComments) RemoveLike(ctx context.Context, id, userID bson.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$pull": bson.M{"likes": userID}})
	return translate(err)
}

func (r *mongoComments) DeleteReplies(ctx context.Context, parent bson.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"parentComment": parent})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}

func (r *mongoComments) Delete(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, r.col, id)
}
