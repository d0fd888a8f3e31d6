package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	ErrEmptyContent         = errors.New("comment content is required")
	ErrInvalidCommentTarget = errors.New("comments attach to videos or posts")
)

type Comment struct {
	ID            bson.ObjectID   `bson:"_id" json:"id"`
	Content       string          `bson:"content" json:"content"`
	Target        Target          `bson:",inline" json:"target"`
	Owner         bson.ObjectID   `bson:"owner" json:"owner"`
	ParentComment *bson.ObjectID  `bson:"parentComment" json:"parentComment"`
	IsReply       bool            `bson:"isReply" json:"isReply"`
	IsEdited      bool            `bson:"isEdited" json:"isEdited"`
	Likes         []bson.ObjectID `bson:"likes" json:"likes"`
	Attachments   []string        `bson:"attachments,omitempty" json:"attachments,omitempty"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// NewComment builds a top-level comment on a video or post.
func NewComment(owner bson.ObjectID, target Target, content string, now time.Time) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrEmptyContent
	}
	if target.Kind != KindVideo && target.Kind != KindPost {
		return Comment{}, ErrInvalidCommentTarget
	}
	return Comment{
		ID:        bson.NewObjectID(),
		Content:   content,
		Target:    target,
		Owner:     owner,
		Likes:     []bson.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewReply builds a reply to parent. The reply inherits the parent's target so
// both always refer to the same content.
func NewReply(owner bson.ObjectID, parent Comment, content string, now time.Time) (Comment, error) {
	c, err := NewComment(owner, parent.Target, content, now)
	if err != nil {
		return Comment{}, err
	}
	parentID := parent.ID
	c.ParentComment = &parentID
	c.IsReply = true
	return c, nil
}

func (c Comment) LikesCount() int { return len(c.Likes) }

// CommentThread is a top-level comment with its replies inlined.
type CommentThread struct {
	Comment
	LikesCount int       `json:"likesCount"`
	Replies    []Comment `json:"replies"`
}

// CommentSort orders top-level comments in listings.
type CommentSort string

const (
	SortNewest  CommentSort = "newest"
	SortOldest  CommentSort = "oldest"
	SortPopular CommentSort = "popular"
)

func ParseCommentSort(s string) (CommentSort, bool) {
	switch CommentSort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, true
	case SortOldest:
		return SortOldest, true
	case SortPopular:
		return SortPopular, true
	}
	return "", false
}
