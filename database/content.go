package database

import (
	"context"

	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoVideos struct {
	col *mongo.Collection
}

func (r *mongoVideos) Create(ctx context.Context, video models.Video) error {
	_, err := r.col.InsertOne(ctx, video)
	return translate(err)
}

func (r *mongoVideos) FindByID(ctx context.Context, id bson.ObjectID) (models.Video, error) {
	var video models.Video
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&video); err != nil {
		return models.Video{}, translate(err)
	}
	return video, nil
}

func (r *mongoVideos) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Video, error) {
	items := make([]models.Video, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translate(err)
	}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mongoVideos) ListPublished(ctx context.Context, owner *bson.ObjectID, page Page) ([]models.Video, int64, error) {
	filter := bson.M{"isPublished": true}
	if owner != nil {
		filter["owner"] = *owner
	}
	return findPage[models.Video](ctx, r.col, filter, page)
}

func (r *mongoVideos) IncrementViews(ctx context.Context, id bson.ObjectID) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoVideos) Delete(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, r.col, id)
}

type mongoPosts struct {
	col *mongo.Collection
}

func (r *mongoPosts) Create(ctx context.Context, post models.Post) error {
	_, err := r.col.InsertOne(ctx, post)
	return translate(err)
}

func (r *mongoPosts) FindByID(ctx context.Context, id bson.ObjectID) (models.Post, error) {
	var post models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return models.Post{}, translate(err)
	}
	return post, nil
}

func (r *mongoPosts) List(ctx context.Context, author *bson.ObjectID, includeHidden bool, page Page) ([]models.Post, int64, error) {
	filter := bson.M{}
	if !includeHidden {
		filter["visibility"] = models.VisibilityPublic
	}
	if author != nil {
		filter["author"] = *author
	}
	return findPage[models.Post](ctx, r.col, filter, page)
}

func (r *mongoPosts) Update(ctx context.Context, post models.Post) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoPosts) Delete(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, r.col, id)
}

// findPage runs a newest-first paginated query and the matching count.
func findPage[T any](ctx context.Context, col *mongo.Collection, filter bson.M, page Page) ([]T, int64, error) {
	opts := options.Find().
		SetSkip(page.Skip).
		SetLimit(page.Limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer cursor.Close(ctx)

	items := make([]T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}
	return items, total, nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id bson.ObjectID) error {
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
