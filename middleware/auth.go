package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/auth"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/models"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	userKey   = "user"
	userIDKey = "userID"
)

// AccessVerifier checks an access token without touching storage.
type AccessVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// Session resolves the caller of a request from its access token.
type Session struct {
	tokens  AccessVerifier
	users   database.UserRepository
	timeout time.Duration
}

func NewSession(tokens AccessVerifier, users database.UserRepository, timeout time.Duration) *Session {
	return &Session{tokens: tokens, users: users, timeout: timeout}
}

// RequireAuth rejects the request with 401 unless it carries a valid access
// token for an existing user.
func (s *Session) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			utils.RespondError(c, apperr.Unauthorizedf("missing access token"))
			return
		}
		if err := s.attach(c, token); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (s *Session) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := accessToken(c); token != "" {
			if err := s.attach(c, token); err != nil && !apperr.Is(err, apperr.Unauthorized) {
				utils.RespondError(c, err)
				return
			}
		}
		c.Next()
	}
}

func (s *Session) attach(c *gin.Context, token string) error {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return err
	}
	id, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return apperr.Unauthorizedf("invalid access token")
	}

	ctx, cancel := database.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return apperr.Unauthorizedf("invalid access token")
	}
	if err != nil {
		return apperr.Wrap(err, "failed to load user")
	}

	c.Set(userKey, user.Public())
	c.Set(userIDKey, user.ID)
	return nil
}

// accessToken prefers the cookie over the Authorization header.
func accessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(utils.AccessCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// CurrentUser returns the caller attached by RequireAuth or OptionalAuth.
func CurrentUser(c *gin.Context) (models.PublicUser, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.PublicUser{}, false
	}
	user, ok := v.(models.PublicUser)
	return user, ok
}

// CurrentUserID returns the caller's id, or nil for anonymous requests.
func CurrentUserID(c *gin.Context) *bson.ObjectID {
	v, ok := c.Get(userIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(bson.ObjectID)
	if !ok {
		return nil
	}
	return &id
}
