package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Video struct {
	ID          bson.ObjectID `bson:"_id" json:"id"`
	VideoFile   string        `bson:"videoFile" json:"videoFile"`
	Thumbnail   string        `bson:"thumbnail" json:"thumbnail"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Duration    float64       `bson:"duration" json:"duration"`
	Views       int64         `bson:"views" json:"views"`
	IsPublished bool          `bson:"isPublished" json:"isPublished"`
	Owner       bson.ObjectID `bson:"owner" json:"owner"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// BlobURLs lists the uploaded media that belongs to the video.
func (v Video) BlobURLs() []string { return nonEmpty(v.VideoFile, v.Thumbnail) }

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaNone  MediaType = "none"
)

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityFollowers Visibility = "followers"
)

type Post struct {
	ID         bson.ObjectID `bson:"_id" json:"id"`
	Title      string        `bson:"title" json:"title"`
	Content    string        `bson:"content" json:"content"`
	Author     bson.ObjectID `bson:"author" json:"author"`
	MediaURL   string        `bson:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	MediaType  MediaType     `bson:"mediaType" json:"mediaType"`
	Tags       []string      `bson:"tags" json:"tags"`
	Visibility Visibility    `bson:"visibility" json:"visibility"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (p Post) BlobURLs() []string { return nonEmpty(p.MediaURL) }

// PostStats is computed per request from the like and comment collections.
type PostStats struct {
	LikesCount    int64 `json:"likesCount"`
	CommentsCount int64 `json:"commentsCount"`
	IsNew         bool  `json:"isNew"`
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
