package controllers

import (
	"errors"
	"strings"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/dto"
	"github.com/clipnest/backend/middleware"
	"github.com/clipnest/backend/models"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
)

// GET /users/current-user
func (h *Handler) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			utils.RespondError(c, apperr.Unauthorizedf("authentication required"))
			return
		}
		utils.OK(c, "current user fetched", user)
	}
}

// PATCH /users/update-account
func (h *Handler) UpdateAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}
		var body dto.UpdateAccountDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.BadRequest(c, "fullname and a valid email are required")
			return
		}
		fullName := strings.TrimSpace(body.FullName)
		if fullName == "" {
			utils.BadRequest(c, "fullname is required")
			return
		}

		ctx, cancel := h.storeContext(c)
		defer cancel()
		user, err := h.Users.UpdateAccount(ctx, id, fullName, strings.ToLower(strings.TrimSpace(body.Email)), h.Now().UTC())
		switch {
		case errors.Is(err, database.ErrDuplicate):
			utils.RespondError(c, apperr.Conflictf("email is already in use"))
			return
		case errors.Is(err, database.ErrNotFound):
			utils.RespondError(c, apperr.NotFoundf("user not found"))
			return
		case err != nil:
			utils.RespondError(c, apperr.Wrap(err, "failed to update account"))
			return
		}
		utils.OK(c, "account details updated", user.Public())
	}
}

// PATCH /users/update-avatar
func (h *Handler) UpdateAvatar() gin.HandlerFunc {
	return h.replaceImage(models.ImageAvatar, "avatar")
}

// PATCH /users/update-cover-image
func (h *Handler) UpdateCoverImage() gin.HandlerFunc {
	return h.replaceImage(models.ImageCover, "coverImage")
}

// replaceImage uploads the new file, points the user at it and only then
// deletes the previous blob.
func (h *Handler) replaceImage(field models.ImageField, formField string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}
		fh := optionalFile(c, formField)
		if fh == nil {
			utils.BadRequest(c, "%s file is required", formField)
			return
		}
		up, _, err := h.upload(c.Request.Context(), fh, h.Validator.ValidateImage)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		ctx, cancel := h.storeContext(c)
		defer cancel()
		previous, err := h.Users.SetImage(ctx, id, field, up.URL, h.Now().UTC())
		if err != nil {
			h.Cleanup(c.Request.Context(), up.URL)
			if errors.Is(err, database.ErrNotFound) {
				utils.RespondError(c, apperr.NotFoundf("user not found"))
				return
			}
			utils.RespondError(c, apperr.Wrap(err, "failed to update %s", field))
			return
		}
		h.Cleanup(c.Request.Context(), previous)

		user, err := h.Users.FindByID(ctx, id)
		if err != nil {
			utils.RespondError(c, apperr.Wrap(err, "failed to load user"))
			return
		}
		utils.OK(c, string(field)+" updated", user.Public())
	}
}

// GET /users/c/:username
func (h *Handler) ChannelProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := h.Graph.ChannelProfile(c.Request.Context(), NormalizeUsername(c.Param("username")), middleware.CurrentUserID(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "channel profile fetched", profile)
	}
}

// GET /users/history
func (h *Handler) WatchHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}
		history, err := h.Content.WatchHistory(c.Request.Context(), id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "watch history fetched", history)
	}
}
