package controllers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/auth"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/dto"
	"github.com/clipnest/backend/logging"
	"github.com/clipnest/backend/models"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/text/unicode/norm"
)

// NormalizeUsername folds compatibility forms and case so that visually equal
// usernames collide.
func NormalizeUsername(raw string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(raw)))
}

func validUsername(username string) bool {
	if username == "" {
		return false
	}
	for _, r := range username {
		if unicode.IsSpace(r) || r == '/' || r == '@' {
			return false
		}
	}
	return true
}

// POST /users/register
func (h *Handler) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterUserDTO
		if err := c.ShouldBind(&body); err != nil {
			utils.BadRequest(c, "fullname, username, a valid email and password are required")
			return
		}

		username := NormalizeUsername(body.Username)
		email := strings.ToLower(strings.TrimSpace(body.Email))
		fullName := strings.TrimSpace(body.FullName)
		if !validUsername(username) || fullName == "" {
			utils.BadRequest(c, "invalid username or fullname")
			return
		}
		if err := auth.ValidatePassword(body.Password); err != nil {
			utils.RespondError(c, err)
			return
		}

		avatarFile := optionalFile(c, "avatar")
		if avatarFile == nil {
			utils.BadRequest(c, "avatar file is required")
			return
		}

		ctx, cancel := h.storeContext(c)
		defer cancel()
		if _, err := h.Users.FindByLogin(ctx, username, email); err == nil {
			utils.RespondError(c, apperr.Conflictf("user with email or username already exists"))
			return
		} else if !errors.Is(err, database.ErrNotFound) {
			utils.RespondError(c, apperr.Wrap(err, "failed to check existing user"))
			return
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		avatar, _, err := h.upload(c.Request.Context(), avatarFile, h.Validator.ValidateImage)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		uploaded := []string{avatar.URL}

		var coverURL string
		if coverFile := optionalFile(c, "coverImage"); coverFile != nil {
			cover, _, err := h.upload(c.Request.Context(), coverFile, h.Validator.ValidateImage)
			if err != nil {
				h.Cleanup(c.Request.Context(), uploaded...)
				utils.RespondError(c, err)
				return
			}
			coverURL = cover.URL
			uploaded = append(uploaded, coverURL)
		}

		now := h.Now().UTC()
		user := models.User{
			ID:           bson.NewObjectID(),
			Username:     username,
			Email:        email,
			FullName:     fullName,
			PasswordHash: hash,
			Avatar:       avatar.URL,
			CoverImage:   coverURL,
			WatchHistory: []bson.ObjectID{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		ctx, cancel = h.storeContext(c)
		defer cancel()
		if err := h.Users.Create(ctx, user); err != nil {
			h.Cleanup(c.Request.Context(), uploaded...)
			if errors.Is(err, database.ErrDuplicate) {
				utils.RespondError(c, apperr.Conflictf("user with email or username already exists"))
				return
			}
			utils.RespondError(c, apperr.Wrap(err, "failed to register user"))
			return
		}

		logging.FromContext(c.Request.Context()).Info("user registered", "user_id", user.ID.Hex())
		utils.Respond(c, http.StatusCreated, "user registered successfully", user.Public())
	}
}

// POST /users/login
func (h *Handler) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.BadRequest(c, "password is required")
			return
		}
		username := NormalizeUsername(body.Username)
		email := strings.ToLower(strings.TrimSpace(body.Email))
		if username == "" && email == "" {
			utils.BadRequest(c, "username or email is required")
			return
		}

		ctx, cancel := h.storeContext(c)
		defer cancel()
		user, err := h.Users.FindByLogin(ctx, username, email)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			utils.RespondError(c, apperr.Wrap(err, "failed to load user"))
			return
		}
		if err != nil || !auth.VerifyPassword(body.Password, user.PasswordHash) {
			utils.RespondError(c, apperr.Unauthorizedf("invalid credentials"))
			return
		}

		pair, err := h.Tokens.IssueTokenPair(c.Request.Context(), user.ID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		h.Cookies.SetSession(c, pair.AccessToken, h.Tokens.AccessTTL(), pair.RefreshToken, h.Tokens.RefreshTTL())
		utils.OK(c, "user logged in successfully", gin.H{
			"user":         user.Public(),
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	}
}

// POST /users/logout
func (h *Handler) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}
		if err := h.Tokens.Revoke(c.Request.Context(), id); err != nil {
			utils.RespondError(c, err)
			return
		}
		h.Cookies.ClearSession(c)
		utils.OK(c, "user logged out", gin.H{})
	}
}

// POST /users/refresh-token
func (h *Handler) RefreshToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, _ := c.Cookie(utils.RefreshCookie)
		if presented == "" {
			var body dto.RefreshDTO
			_ = c.ShouldBindJSON(&body)
			presented = strings.TrimSpace(body.RefreshToken)
		}
		if presented == "" {
			utils.RespondError(c, apperr.Unauthorizedf("missing refresh token"))
			return
		}

		pair, _, err := h.Tokens.RotateRefresh(c.Request.Context(), presented)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		h.Cookies.SetSession(c, pair.AccessToken, h.Tokens.AccessTTL(), pair.RefreshToken, h.Tokens.RefreshTTL())
		utils.OK(c, "access token refreshed", pair)
	}
}

// POST /users/change-password
func (h *Handler) ChangePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}
		var body dto.ChangePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.BadRequest(c, "oldPassword and a newPassword of at least %d characters are required", auth.MinPasswordLength)
			return
		}

		ctx, cancel := h.storeContext(c)
		defer cancel()
		user, err := h.Users.FindByID(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondError(c, apperr.Unauthorizedf("account no longer exists"))
			return
		}
		if err != nil {
			utils.RespondError(c, apperr.Wrap(err, "failed to load user"))
			return
		}
		if !auth.VerifyPassword(body.OldPassword, user.PasswordHash) {
			utils.RespondError(c, apperr.Unauthorizedf("current password is incorrect"))
			return
		}

		hash, err := auth.HashPassword(body.NewPassword)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if err := h.Users.UpdatePassword(ctx, id, hash, h.Now().UTC()); err != nil {
			utils.RespondError(c, apperr.Wrap(err, "failed to update password"))
			return
		}
		if err := h.Tokens.Revoke(c.Request.Context(), id); err != nil {
			utils.RespondError(c, err)
			return
		}
		h.Cookies.ClearSession(c)
		utils.OK(c, "password changed successfully", gin.H{})
	}
}
