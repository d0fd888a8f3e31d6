package auth

import (
	"context"
	"testing"
	"time"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/database/memory"
	"github.com/clipnest/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newTestService(t *testing.T, now func() time.Time) (*Service, database.UserRepository, bson.ObjectID) {
	t.Helper()
	users := memory.New().Repositories().Users
	id := bson.NewObjectID()
	err := users.Create(context.Background(), models.User{
		ID:       id,
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Doe",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	svc := NewService(users, Options{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    24 * time.Hour,
		StoreTimeout:  time.Second,
		Now:           now,
	})
	return svc, users, id
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !VerifyPassword("correct horse", hash) {
		t.Fatal("expected matching password to verify")
	}
	if VerifyPassword("wrong horse", hash) {
		t.Fatal("expected other password to fail")
	}
	if VerifyPassword("correct horse", "") {
		t.Fatal("empty hash must never verify")
	}

	again, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if again == hash {
		t.Fatal("hashes must be salted")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if err := ValidatePassword("long enough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIssueAndVerifyAccess(t *testing.T) {
	svc, users, id := newTestService(t, nil)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, id)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	claims, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != id.Hex() || claims.Username != "alice" || claims.FullName != "Alice Doe" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	// A refresh token is not an access token.
	if _, err := svc.VerifyAccess(pair.RefreshToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected Unauthorized for refresh token, got %v", err)
	}

	user, _ := users.FindByID(ctx, id)
	if user.RefreshTokenHash != Fingerprint(pair.RefreshToken) {
		t.Fatal("stored fingerprint should match the issued refresh token")
	}
	if user.RefreshTokenHash == pair.RefreshToken {
		t.Fatal("raw refresh token must not be stored")
	}
}

func TestIssueUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	if _, err := svc.IssueTokenPair(context.Background(), bson.NewObjectID()); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRotateRefreshSucceedsExactlyOnce(t *testing.T) {
	svc, _, id := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.IssueTokenPair(ctx, id)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	second, user, err := svc.RotateRefresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("RotateRefresh: %v", err)
	}
	if user.ID != id {
		t.Fatalf("rotated for wrong user %v", user.ID)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("rotation must mint a new refresh token")
	}

	if _, _, err := svc.RotateRefresh(ctx, first.RefreshToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("superseded token should fail with Unauthorized, got %v", err)
	}
	if _, _, err := svc.RotateRefresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("current token should rotate: %v", err)
	}
}

func TestReissueInvalidatesPreviousRefresh(t *testing.T) {
	svc, _, id := newTestService(t, nil)
	ctx := context.Background()

	old, _ := svc.IssueTokenPair(ctx, id)
	if _, err := svc.IssueTokenPair(ctx, id); err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	if _, _, err := svc.RotateRefresh(ctx, old.RefreshToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	svc, _, id := newTestService(t, nil)
	ctx := context.Background()

	pair, _ := svc.IssueTokenPair(ctx, id)
	if err := svc.Revoke(ctx, id); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, _, err := svc.RotateRefresh(ctx, pair.RefreshToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected Unauthorized after revoke, got %v", err)
	}
}

func TestExpiredAndForeignTokens(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	svc, _, id := newTestService(t, clock)
	ctx := context.Background()

	pair, err := svc.IssueTokenPair(ctx, id)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	now = now.Add(time.Hour)
	if _, err := svc.VerifyAccess(pair.AccessToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected expired access token to fail, got %v", err)
	}

	now = now.Add(48 * time.Hour)
	if _, _, err := svc.RotateRefresh(ctx, pair.RefreshToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected expired refresh token to fail, got %v", err)
	}

	other := NewService(nil, Options{AccessSecret: "someone-else", AccessTTL: time.Minute, RefreshSecret: "x", RefreshTTL: time.Minute})
	foreign, err := other.sign(models.User{ID: id})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.VerifyAccess(foreign.AccessToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected token signed with another secret to fail, got %v", err)
	}
	if _, err := svc.VerifyAccess("not-a-jwt"); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected malformed token to fail, got %v", err)
	}
}

// interleavedUsers lets a concurrent rotation store its fingerprint between
// the load and the swap of the rotation under test.
type interleavedUsers struct {
	database.UserRepository
}

func (u interleavedUsers) SwapRefreshToken(ctx context.Context, id bson.ObjectID, expected, hash string) (bool, error) {
	if err := u.SetRefreshToken(ctx, id, Fingerprint("concurrent-winner")); err != nil {
		return false, err
	}
	return u.UserRepository.SwapRefreshToken(ctx, id, expected, hash)
}

func TestRotateRefreshLosingSwapIsUnauthorized(t *testing.T) {
	svc, users, id := newTestService(t, nil)
	ctx := context.Background()
	pair, err := svc.IssueTokenPair(ctx, id)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	racing := NewService(interleavedUsers{UserRepository: users}, svc.opts)
	if _, _, err := racing.RotateRefresh(ctx, pair.RefreshToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected Unauthorized after losing the swap, got %v", err)
	}
	stored, err := users.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.RefreshTokenHash != Fingerprint("concurrent-winner") {
		t.Fatal("the winning rotation's fingerprint must be kept")
	}
}
