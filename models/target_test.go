package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestParseTargetKind(t *testing.T) {
	tests := []struct {
		in      string
		want    TargetKind
		wantErr bool
	}{
		{"video", KindVideo, false},
		{"Video", KindVideo, false},
		{" POST ", KindPost, false},
		{"comment", KindComment, false},
		{"channel", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTargetKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseTargetKind(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseTargetKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTargetRejectsBadID(t *testing.T) {
	if _, err := ParseTarget("video", "not-an-id"); err == nil {
		t.Fatal("expected error for malformed id")
	}
	id := bson.NewObjectID()
	target, err := ParseTarget("post", id.Hex())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if target != PostTarget(id) {
		t.Fatalf("unexpected target %+v", target)
	}
}

func TestCommentFactoriesDeriveReplyFlag(t *testing.T) {
	owner := bson.NewObjectID()
	now := time.Now().UTC()

	top, err := NewComment(owner, VideoTarget(bson.NewObjectID()), "  first!  ", now)
	if err != nil {
		t.Fatalf("new comment: %v", err)
	}
	if top.IsReply || top.ParentComment != nil {
		t.Fatalf("top-level comment marked as reply: %+v", top)
	}
	if top.Content != "first!" {
		t.Fatalf("content not trimmed: %q", top.Content)
	}

	reply, err := NewReply(bson.NewObjectID(), top, "agreed", now)
	if err != nil {
		t.Fatalf("new reply: %v", err)
	}
	if !reply.IsReply || reply.ParentComment == nil || *reply.ParentComment != top.ID {
		t.Fatalf("reply not linked to parent: %+v", reply)
	}
	if reply.Target != top.Target {
		t.Fatalf("reply target %v differs from parent %v", reply.Target, top.Target)
	}
}

func TestNewCommentValidation(t *testing.T) {
	owner := bson.NewObjectID()
	if _, err := NewComment(owner, VideoTarget(bson.NewObjectID()), "   ", time.Now()); err != ErrEmptyContent {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if _, err := NewComment(owner, CommentTarget(bson.NewObjectID()), "hi", time.Now()); err != ErrInvalidCommentTarget {
		t.Fatalf("expected ErrInvalidCommentTarget, got %v", err)
	}
}
