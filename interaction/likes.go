package interaction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/events"
	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// LikeEngine keeps at most one like row per (user, target) and records
// like or dislike on it.
type LikeEngine struct {
	likes    database.LikeRepository
	comments database.CommentRepository
	resolver *Resolver
	events   events.Publisher
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

type LikeEngineOptions struct {
	Events  events.Publisher
	Logger  *slog.Logger
	Timeout time.Duration
	Now     func() time.Time
}

func NewLikeEngine(repos database.Repositories, resolver *Resolver, opts LikeEngineOptions) *LikeEngine {
	if opts.Events == nil {
		opts.Events = events.Noop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &LikeEngine{
		likes:    repos.Likes,
		comments: repos.Comments,
		resolver: resolver,
		events:   opts.Events,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		now:      opts.Now,
	}
}

type likeEvent struct {
	Target models.Target    `json:"target"`
	State  models.LikeState `json:"state"`
}

// SetLike replaces any existing row of actor on target with a fresh one
// carrying like. Repeating the same call leaves one identical row.
func (e *LikeEngine) SetLike(ctx context.Context, actor bson.ObjectID, target models.Target, like bool) (models.LikeState, error) {
	if _, err := e.resolver.Resolve(ctx, target); err != nil {
		return "", err
	}

	ctx, cancel := database.WithTimeout(ctx, e.timeout)
	defer cancel()

	existing, err := e.likes.Find(ctx, actor, target)
	switch {
	case err == nil:
		if err := e.likes.Delete(ctx, existing.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
			return "", apperr.Wrap(err, "failed to replace like")
		}
	case errors.Is(err, database.ErrNotFound):
	default:
		return "", apperr.Wrap(err, "failed to load like")
	}

	row := models.Like{
		ID:        bson.NewObjectID(),
		UserID:    actor,
		Target:    target,
		Liked:     like,
		CreatedAt: e.now().UTC(),
	}
	if err := e.likes.Create(ctx, row); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// A concurrent SetLike recreated the row first.
			conflict := apperr.Conflictf("like changed concurrently, retry")
			conflict.Retryable = true
			return "", conflict
		}
		return "", apperr.Wrap(err, "failed to record like")
	}

	if target.Kind == models.KindComment {
		e.syncCommentLike(ctx, target.ID, actor, like)
	}

	state := models.StateDisliked
	if like {
		state = models.StateLiked
	}
	events.Emit(ctx, e.events, e.logger, events.New(events.LikeSet, actor.Hex(), likeEvent{Target: target, State: state}))
	return state, nil
}

// ClearLike removes the row of actor on target.
func (e *LikeEngine) ClearLike(ctx context.Context, actor bson.ObjectID, target models.Target) (models.LikeState, error) {
	if !target.Kind.Valid() {
		return "", apperr.InvalidArgumentf("invalid target kind %q", target.Kind)
	}
	ctx, cancel := database.WithTimeout(ctx, e.timeout)
	defer cancel()

	existing, err := e.likes.Find(ctx, actor, target)
	if errors.Is(err, database.ErrNotFound) {
		return "", apperr.NotFoundf("like not found")
	}
	if err != nil {
		return "", apperr.Wrap(err, "failed to load like")
	}
	if err := e.likes.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", apperr.NotFoundf("like not found")
		}
		return "", apperr.Wrap(err, "failed to remove like")
	}
	if target.Kind == models.KindComment {
		e.syncCommentLike(ctx, target.ID, actor, false)
	}

	events.Emit(ctx, e.events, e.logger, events.New(events.LikeCleared, actor.Hex(), likeEvent{Target: target, State: models.StateRemoved}))
	return models.StateRemoved, nil
}

// CountLikes counts rows whose flag is true. Dislikes are not included.
func (e *LikeEngine) CountLikes(ctx context.Context, target models.Target) (int64, error) {
	if !target.Kind.Valid() {
		return 0, apperr.InvalidArgumentf("invalid target kind %q", target.Kind)
	}
	ctx, cancel := database.WithTimeout(ctx, e.timeout)
	defer cancel()

	liked := true
	n, err := e.likes.Count(ctx, target, &liked)
	if err != nil {
		return 0, apperr.Wrap(err, "failed to count likes")
	}
	return n, nil
}

// CountReactions returns likes and dislikes on target.
func (e *LikeEngine) CountReactions(ctx context.Context, target models.Target) (models.ReactionCounts, error) {
	likes, err := e.CountLikes(ctx, target)
	if err != nil {
		return models.ReactionCounts{}, err
	}
	ctx, cancel := database.WithTimeout(ctx, e.timeout)
	defer cancel()

	disliked := false
	dislikes, err := e.likes.Count(ctx, target, &disliked)
	if err != nil {
		return models.ReactionCounts{}, apperr.Wrap(err, "failed to count dislikes")
	}
	return models.ReactionCounts{Likes: likes, Dislikes: dislikes}, nil
}

// syncCommentLike keeps the embedded like references of a comment in step
// with its like rows. The rows are authoritative, so a failure is logged.
func (e *LikeEngine) syncCommentLike(ctx context.Context, commentID, actor bson.ObjectID, liked bool) {
	var err error
	if liked {
		err = e.comments.AddLike(ctx, commentID, actor)
	} else {
		err = e.comments.RemoveLike(ctx, commentID, actor)
	}
	if err != nil {
		e.logger.Warn("comment like sync failed", "comment", commentID.Hex(), "error", err)
	}
}
