package database

import (
	"context"
	"time"

	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Page bounds a listing query.
type Page struct {
	Skip  int64
	Limit int64
}

// UserRepository stores identities. Create returns ErrDuplicate when the
// username or email is taken; lookups return ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id bson.ObjectID, fullName, email string, now time.Time) (models.User, error)
	UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string, now time.Time) error
	// SetImage replaces a media reference and returns the previous value.
	SetImage(ctx context.Context, id bson.ObjectID, field models.ImageField, url string, now time.Time) (string, error)
	// SetRefreshToken overwrites the stored fingerprint unconditionally.
	SetRefreshToken(ctx context.Context, id bson.ObjectID, hash string) error
	// SwapRefreshToken replaces the fingerprint only if it still equals
	// expected, reporting whether the swap happened.
	SwapRefreshToken(ctx context.Context, id bson.ObjectID, expected, hash string) (bool, error)
	ClearRefreshToken(ctx context.Context, id bson.ObjectID) error
	AppendWatchHistory(ctx context.Context, id, videoID bson.ObjectID) error
}

type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id bson.ObjectID) (models.Video, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Video, error)
	ListPublished(ctx context.Context, owner *bson.ObjectID, page Page) ([]models.Video, int64, error)
	IncrementViews(ctx context.Context, id bson.ObjectID) error
	Delete(ctx context.Context, id bson.ObjectID) error
}

type PostRepository interface {
	Create(ctx context.Context, post models.Post) error
	FindByID(ctx context.Context, id bson.ObjectID) (models.Post, error)
	// List returns public posts, narrowed to author when set. includeHidden
	// adds private and followers-only posts.
	List(ctx context.Context, author *bson.ObjectID, includeHidden bool, page Page) ([]models.Post, int64, error)
	// Update replaces the stored post with the same id.
	Update(ctx context.Context, post models.Post) error
	Delete(ctx context.Context, id bson.ObjectID) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id bson.ObjectID) (models.Comment, error)
	// ListTopLevel returns comments without a parent on target, sorted and
	// paginated, together with the total count of such comments.
	ListTopLevel(ctx context.Context, target models.Target, sort models.CommentSort, page Page) ([]models.Comment, int64, error)
	// ListReplies returns the direct replies of every parent, newest first.
	ListReplies(ctx context.Context, parents []bson.ObjectID) ([]models.Comment, error)
	// ListByTarget returns every comment (top-level and replies) on target.
	ListByTarget(ctx context.Context, target models.Target) ([]models.Comment, error)
	CountByTarget(ctx context.Context, target models.Target) (int64, error)
	UpdateContent(ctx context.Context, id bson.ObjectID, content string, now time.Time) error
	AddLike(ctx context.Context, id, userID bson.ObjectID) error
	RemoveLike(ctx context.Context, id, userID bson.ObjectID) error
	DeleteReplies(ctx context.Context, parent bson.ObjectID) (int64, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

// LikeRepository enforces one row per (user, target kind, target id): Create
// returns ErrDuplicate when the row already exists.
type LikeRepository interface {
	Find(ctx context.Context, userID bson.ObjectID, target models.Target) (models.Like, error)
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, id bson.ObjectID) error
	// Count counts rows on target; a nil liked counts both flags.
	Count(ctx context.Context, target models.Target, liked *bool) (int64, error)
	DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []bson.ObjectID) (int64, error)
}

// SubscriptionRepository stores subscriber -> channel edges, unique per pair.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriber, channel bson.ObjectID) error
	Exists(ctx context.Context, subscriber, channel bson.ObjectID) (bool, error)
	CountSubscribers(ctx context.Context, channel bson.ObjectID) (int64, error)
	CountSubscriptions(ctx context.Context, subscriber bson.ObjectID) (int64, error)
	ListBySubscriber(ctx context.Context, subscriber bson.ObjectID) ([]models.Subscription, error)
}
