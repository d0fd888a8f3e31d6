package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID               bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username         string          `bson:"username" json:"username"`
	Email            string          `bson:"email" json:"email"`
	FullName         string          `bson:"fullname" json:"fullname"`
	PasswordHash     string          `bson:"password" json:"-"`               // never expose
	RefreshTokenHash string          `bson:"refreshToken,omitempty" json:"-"` // sha256 of the current refresh token
	Avatar           string          `bson:"avatar" json:"avatar"`
	CoverImage       string          `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	WatchHistory     []bson.ObjectID `bson:"watchHistory" json:"watchHistory"`
	CreatedAt        time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the projection of a User that is safe to hand to handlers
// and clients: no password hash, no refresh token fingerprint.
type PublicUser struct {
	ID         bson.ObjectID `json:"id"`
	Username   string        `json:"username"`
	Email      string        `json:"email"`
	FullName   string        `json:"fullname"`
	Avatar     string        `json:"avatar"`
	CoverImage string        `json:"coverImage,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
	}
}

// ImageField names one of the user's media references.
type ImageField string

const (
	ImageAvatar ImageField = "avatar"
	ImageCover  ImageField = "coverImage"
)

// ChannelProfile is the aggregate view of a user as a channel. The counts are
// computed from subscription edges on every read.
type ChannelProfile struct {
	PublicUser
	SubscriberCount    int64 `json:"subscribersCount"`
	SubscriptionCount  int64 `json:"subscriptionsCount"`
	IsViewerSubscribed bool  `json:"isSubscribed"`
}
