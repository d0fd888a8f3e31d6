package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscription is a directed edge from subscriber to channel.
type Subscription struct {
	ID         bson.ObjectID `bson:"_id" json:"id"`
	Subscriber bson.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    bson.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}
