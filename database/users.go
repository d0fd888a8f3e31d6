package database

import (
	"context"
	"time"

	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoUsers struct {
	col *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, user models.User) error {
	if user.WatchHistory == nil {
		user.WatchHistory = []bson.ObjectID{}
	}
	_, err := r.col.InsertOne(ctx, user)
	return translate(err)
}

func (r *mongoUsers) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

func (r *mongoUsers) FindByID(ctx context.Context, id bson.ObjectID) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUsers) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoUsers) FindByLogin(ctx context.Context, username, email string) (models.User, error) {
	or := make([]bson.M, 0, 2)
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return models.User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"$or": or})
}

func (r *mongoUsers) UpdateAccount(ctx context.Context, id bson.ObjectID, fullName, email string, now time.Time) (models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"fullname":  fullName,
			"email":     email,
			"updatedAt": now,
		},
	}, opts).Decode(&user)
	if err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

func (r *mongoUsers) UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string, now time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"password":  passwordHash,
			"updatedAt": now,
		},
	})
}

func (r *mongoUsers) SetImage(ctx context.Context, id bson.ObjectID, field models.ImageField, url string, now time.Time) (string, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var before models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			string(field): url,
			"updatedAt":   now,
		},
	}, opts).Decode(&before)
	if err != nil {
		return "", translate(err)
	}
	if field == models.ImageCover {
		return before.CoverImage, nil
	}
	return before.Avatar, nil
}

func (r *mongoUsers) SetRefreshToken(ctx context.Context, id bson.ObjectID, hash string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"refreshToken": hash}})
}

func (r *mongoUsers) SwapRefreshToken(ctx context.Context, id bson.ObjectID, expected, hash string) (bool, error) {
	if expected == "" {
		return false, nil
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "refreshToken": expected}, bson.M{
		"$set": bson.M{"refreshToken": hash},
	})
	if err != nil {
		return false, translate(err)
	}
	return res.MatchedCount == 1, nil
}

func (r *mongoUsers) ClearRefreshToken(ctx context.Context, id bson.ObjectID) error {
	return r.updateByID(ctx, id, bson.M{"$unset": bson.M{"refreshToken": ""}})
}

func (r *mongoUsers) AppendWatchHistory(ctx context.Context, id, videoID bson.ObjectID) error {
	// Move the video to the end so the history stays ordered by last watch.
	if _, err := r.col.UpdateByID(ctx, id, bson.M{"$pull": bson.M{"watchHistory": videoID}}); err != nil {
		return translate(err)
	}
	return r.updateByID(ctx, id, bson.M{"$push": bson.M{"watchHistory": videoID}})
}

func (r *mongoUsers) updateByID(ctx context.Context, id bson.ObjectID, update bson.M) error {
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
