// Package interaction implements likes and comments on videos, posts and
// comments. Both resolve their target through the same Resolver so they
// share one validation path.
package interaction

import (
	"context"
	"errors"
	"time"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Entity is a resolved target. Exactly one of Video, Post and Comment is set,
// matching Target.Kind.
type Entity struct {
	Target  models.Target
	Owner   bson.ObjectID
	Video   *models.Video
	Post    *models.Post
	Comment *models.Comment
}

type Resolver struct {
	videos   database.VideoRepository
	posts    database.PostRepository
	comments database.CommentRepository
	timeout  time.Duration
}

func NewResolver(repos database.Repositories, timeout time.Duration) *Resolver {
	return &Resolver{
		videos:   repos.Videos,
		posts:    repos.Posts,
		comments: repos.Comments,
		timeout:  timeout,
	}
}

// ParseTarget converts request values into a Target, reporting bad input as
// InvalidArgument.
func ParseTarget(kind, id string) (models.Target, error) {
	target, err := models.ParseTarget(kind, id)
	if err != nil {
		return models.Target{}, apperr.InvalidArgumentf("%s", err.Error())
	}
	return target, nil
}

// Resolve loads the entity target refers to from the store of its kind.
func (r *Resolver) Resolve(ctx context.Context, target models.Target) (Entity, error) {
	if !target.Kind.Valid() {
		return Entity{}, apperr.InvalidArgumentf("invalid target kind %q", target.Kind)
	}
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	e := Entity{Target: target}
	var err error
	switch target.Kind {
	case models.KindVideo:
		var v models.Video
		if v, err = r.videos.FindByID(ctx, target.ID); err == nil {
			e.Video, e.Owner = &v, v.Owner
		}
	case models.KindPost:
		var p models.Post
		if p, err = r.posts.FindByID(ctx, target.ID); err == nil {
			e.Post, e.Owner = &p, p.Author
		}
	case models.KindComment:
		var c models.Comment
		if c, err = r.comments.FindByID(ctx, target.ID); err == nil {
			e.Comment, e.Owner = &c, c.Owner
		}
	}
	if errors.Is(err, database.ErrNotFound) {
		return Entity{}, apperr.NotFoundf("%s not found", target.Kind)
	}
	if err != nil {
		return Entity{}, apperr.Wrap(err, "failed to load %s", target.Kind)
	}
	return e, nil
}
