package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// TargetKind enumerates the content kinds a like or comment can attach to.
type TargetKind string

const (
	KindVideo   TargetKind = "video"
	KindPost    TargetKind = "post"
	KindComment TargetKind = "comment"
)

// ParseTargetKind accepts the kind names case-insensitively ("Video" and
// "video" are the same kind).
func ParseTargetKind(s string) (TargetKind, error) {
	switch TargetKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindVideo:
		return KindVideo, nil
	case KindPost:
		return KindPost, nil
	case KindComment:
		return KindComment, nil
	}
	return "", fmt.Errorf("invalid target kind %q", s)
}

func (k TargetKind) Valid() bool {
	return k == KindVideo || k == KindPost || k == KindComment
}

// Target is a polymorphic reference to a video, post or comment.
type Target struct {
	Kind TargetKind    `bson:"targetKind" json:"targetKind"`
	ID   bson.ObjectID `bson:"targetId" json:"targetId"`
}

func VideoTarget(id bson.ObjectID) Target   { return Target{Kind: KindVideo, ID: id} }
func PostTarget(id bson.ObjectID) Target    { return Target{Kind: KindPost, ID: id} }
func CommentTarget(id bson.ObjectID) Target { return Target{Kind: KindComment, ID: id} }

// ParseTarget builds a Target from the raw kind and hex id found in requests.
func ParseTarget(kind, id string) (Target, error) {
	k, err := ParseTargetKind(kind)
	if err != nil {
		return Target{}, err
	}
	oid, err := bson.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return Target{}, fmt.Errorf("invalid %s id", k)
	}
	return Target{Kind: k, ID: oid}, nil
}

func (t Target) String() string {
	return string(t.Kind) + ":" + t.ID.Hex()
}
