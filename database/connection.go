package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	UsersCollection         = "users"
	VideosCollection        = "videos"
	PostsCollection         = "posts"
	CommentsCollection      = "comments"
	LikesCollection         = "likes"
	SubscriptionsCollection = "subscriptions"
)

// Connect opens a client against uri and pings the primary before returning.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Repositories groups the collection-backed stores used by the services.
type Repositories struct {
	Users         UserRepository
	Videos        VideoRepository
	Posts         PostRepository
	Comments      CommentRepository
	Likes         LikeRepository
	Subscriptions SubscriptionRepository
}

// NewMongoRepositories binds every repository to its collection in db.
func NewMongoRepositories(db *mongo.Database) Repositories {
	return Repositories{
		Users:         &mongoUsers{col: db.Collection(UsersCollection)},
		Videos:        &mongoVideos{col: db.Collection(VideosCollection)},
		Posts:         &mongoPosts{col: db.Collection(PostsCollection)},
		Comments:      &mongoComments{col: db.Collection(CommentsCollection)},
		Likes:         &mongoLikes{col: db.Collection(LikesCollection)},
		Subscriptions: &mongoSubscriptions{col: db.Collection(SubscriptionsCollection)},
	}
}
