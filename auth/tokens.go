// Package auth issues, verifies and rotates the signed token pairs that
// carry a session, and hashes passwords.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Claims is the payload of both tokens. Refresh tokens carry only the id.
type Claims struct {
	UserID   string `json:"_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullname,omitempty"`
	jwt.RegisteredClaims
}

// Pair is an access token with its refresh token.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Options struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	// StoreTimeout bounds each credential store call.
	StoreTimeout time.Duration
	Now          func() time.Time
}

// Service signs tokens and keeps the single current refresh fingerprint of
// each identity.
type Service struct {
	users database.UserRepository
	opts  Options
}

func NewService(users database.UserRepository, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{users: users, opts: opts}
}

func (s *Service) AccessTTL() time.Duration  { return s.opts.AccessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.opts.RefreshTTL }

// IssueTokenPair signs a fresh pair for id and overwrites the stored refresh
// fingerprint.
func (s *Service) IssueTokenPair(ctx context.Context, id bson.ObjectID) (Pair, error) {
	user, err := s.loadUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return Pair{}, apperr.NotFoundf("user not found")
	}
	if err != nil {
		return Pair{}, apperr.Wrap(err, "failed to load user")
	}
	pair, err := s.sign(user)
	if err != nil {
		return Pair{}, err
	}

	ctx, cancel := database.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	if err := s.users.SetRefreshToken(ctx, id, Fingerprint(pair.RefreshToken)); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Pair{}, apperr.NotFoundf("user not found")
		}
		return Pair{}, apperr.Wrap(err, "failed to store refresh token")
	}
	return pair, nil
}

// VerifyAccess checks signature and expiry only.
func (s *Service) VerifyAccess(token string) (*Claims, error) {
	claims, err := s.parse(token, s.opts.AccessSecret)
	if err != nil {
		return nil, apperr.Unauthorizedf("invalid or expired access token")
	}
	return claims, nil
}

// RotateRefresh exchanges the current refresh token for a new pair. A token
// that is not the one on record fails, so a superseded token can never be
// used twice.
func (s *Service) RotateRefresh(ctx context.Context, presented string) (Pair, models.User, error) {
	claims, err := s.parse(presented, s.opts.RefreshSecret)
	if err != nil {
		return Pair{}, models.User{}, apperr.Unauthorizedf("invalid or expired refresh token")
	}
	id, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return Pair{}, models.User{}, apperr.Unauthorizedf("invalid refresh token")
	}

	user, err := s.loadUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return Pair{}, models.User{}, apperr.Unauthorizedf("invalid refresh token")
	}
	if err != nil {
		return Pair{}, models.User{}, apperr.Wrap(err, "failed to load user")
	}

	current := Fingerprint(presented)
	if !fingerprintsEqual(current, user.RefreshTokenHash) {
		return Pair{}, models.User{}, apperr.Unauthorizedf("refresh token is expired or used")
	}

	pair, err := s.sign(user)
	if err != nil {
		return Pair{}, models.User{}, err
	}

	ctx, cancel := database.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	swapped, err := s.users.SwapRefreshToken(ctx, id, current, Fingerprint(pair.RefreshToken))
	if err != nil {
		return Pair{}, models.User{}, apperr.Wrap(err, "failed to rotate refresh token")
	}
	if !swapped {
		// Another rotation won the race with the same token.
		return Pair{}, models.User{}, apperr.Unauthorizedf("refresh token is expired or used")
	}
	return pair, user, nil
}

// Revoke clears the stored fingerprint so no refresh token of id works.
func (s *Service) Revoke(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := database.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	err := s.users.ClearRefreshToken(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return apperr.NotFoundf("user not found")
	}
	return apperr.Wrap(err, "failed to revoke refresh token")
}

func (s *Service) loadUser(ctx context.Context, id bson.ObjectID) (models.User, error) {
	ctx, cancel := database.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return s.users.FindByID(ctx, id)
}

func (s *Service) sign(user models.User) (Pair, error) {
	now := s.opts.Now()
	access := Claims{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.AccessTTL)),
		},
	}
	refresh := Claims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.RefreshTTL)),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString([]byte(s.opts.AccessSecret))
	if err != nil {
		return Pair{}, apperr.Internalf(err, "failed to sign access token")
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString([]byte(s.opts.RefreshSecret))
	if err != nil {
		return Pair{}, apperr.Internalf(err, "failed to sign refresh token")
	}
	return Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) parse(token, secret string) (*Claims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.opts.Now),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.Join(errors.New("invalid token"), err)
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
