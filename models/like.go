package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Like is at most one row per (user, target kind, target id). Liked is false
// for a dislike.
type Like struct {
	ID        bson.ObjectID `bson:"_id" json:"id"`
	UserID    bson.ObjectID `bson:"userId" json:"userId"`
	Target    Target        `bson:",inline" json:"target"`
	Liked     bool          `bson:"liked" json:"liked"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

type LikeState string

const (
	StateLiked    LikeState = "liked"
	StateDisliked LikeState = "disliked"
	StateRemoved  LikeState = "removed"
)

// ReactionCounts splits the like rows of a target by flag.
type ReactionCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}
