package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestUsersUniqueUsernameAndEmail(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	alice := models.User{ID: bson.NewObjectID(), Username: "alice", Email: "alice@example.com"}
	if err := repos.Users.Create(ctx, alice); err != nil {
		t.Fatalf("create: %v", err)
	}
	dupName := models.User{ID: bson.NewObjectID(), Username: "alice", Email: "other@example.com"}
	if err := repos.Users.Create(ctx, dupName); !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for username, got %v", err)
	}
	dupMail := models.User{ID: bson.NewObjectID(), Username: "other", Email: "alice@example.com"}
	if err := repos.Users.Create(ctx, dupMail); !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for email, got %v", err)
	}
}

func TestSwapRefreshTokenIsCompareAndSet(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	id := bson.NewObjectID()
	if err := repos.Users.Create(ctx, models.User{ID: id, Username: "bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repos.Users.SetRefreshToken(ctx, id, "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ok, _ := repos.Users.SwapRefreshToken(ctx, id, "stale", "second"); ok {
		t.Fatal("swap with stale fingerprint should fail")
	}
	if ok, _ := repos.Users.SwapRefreshToken(ctx, id, "first", "second"); !ok {
		t.Fatal("swap with current fingerprint should succeed")
	}
	if ok, _ := repos.Users.SwapRefreshToken(ctx, id, "first", "third"); ok {
		t.Fatal("superseded fingerprint must not swap again")
	}
}

func TestLikesUniquePerUserAndTarget(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	user := bson.NewObjectID()
	target := models.VideoTarget(bson.NewObjectID())

	first := models.Like{ID: bson.NewObjectID(), UserID: user, Target: target, Liked: true, CreatedAt: time.Now()}
	if err := repos.Likes.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := models.Like{ID: bson.NewObjectID(), UserID: user, Target: target, Liked: false, CreatedAt: time.Now()}
	if err := repos.Likes.Create(ctx, second); !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Same id on another kind is a different target.
	other := models.Like{ID: bson.NewObjectID(), UserID: user, Target: models.PostTarget(target.ID), Liked: true}
	if err := repos.Likes.Create(ctx, other); err != nil {
		t.Fatalf("create on other kind: %v", err)
	}
}

func TestListTopLevelSortsAndPaginates(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	target := models.PostTarget(bson.NewObjectID())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []bson.ObjectID
	for i := 0; i < 3; i++ {
		c, err := models.NewComment(bson.NewObjectID(), target, "comment", base.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("new comment: %v", err)
		}
		if i == 0 {
			c.Likes = []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID()}
		}
		if err := repos.Comments.Create(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, c.ID)
	}

	newest, total, err := repos.Comments.ListTopLevel(ctx, target, models.SortNewest, database.Page{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(newest) != 2 || newest[0].ID != ids[2] {
		t.Fatalf("unexpected newest page: total=%d len=%d", total, len(newest))
	}

	popular, _, _ := repos.Comments.ListTopLevel(ctx, target, models.SortPopular, database.Page{Limit: 10})
	if popular[0].ID != ids[0] {
		t.Fatal("most liked comment should come first")
	}

	oldest, _, _ := repos.Comments.ListTopLevel(ctx, target, models.SortOldest, database.Page{Skip: 1, Limit: 10})
	if len(oldest) != 2 || oldest[0].ID != ids[1] {
		t.Fatal("unexpected oldest page")
	}
}
