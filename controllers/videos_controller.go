package controllers

import (
	"net/http"
	"strings"

	"github.com/clipnest/backend/content"
	"github.com/clipnest/backend/dto"
	"github.com/clipnest/backend/middleware"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// POST /videos
func (h *Handler) CreateVideo() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := caller(c)
		if !ok {
			return
		}
		var body dto.CreateVideoDTO
		if err := c.ShouldBind(&body); err != nil {
			utils.BadRequest(c, "title is required and duration must not be negative")
			return
		}
		videoFile := optionalFile(c, "videoFile")
		thumbnail := optionalFile(c, "thumbnail")
		if videoFile == nil || thumbnail == nil {
			utils.BadRequest(c, "videoFile and thumbnail are required")
			return
		}

		ctx := c.Request.Context()
		video, _, err := h.upload(ctx, videoFile, h.Validator.ValidateVideo)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		thumb, _, err := h.upload(ctx, thumbnail, h.Validator.ValidateImage)
		if err != nil {
			h.Cleanup(ctx, video.URL)
			utils.RespondError(c, err)
			return
		}

		duration := body.Duration
		if video.Duration != nil {
			duration = *video.Duration
		}
		published := true
		if body.IsPublished != nil {
			published = *body.IsPublished
		}

		created, err := h.Content.CreateVideo(ctx, owner, content.NewVideo{
			Title:       body.Title,
			Description: body.Description,
			VideoFile:   video.URL,
			Thumbnail:   thumb.URL,
			Duration:    duration,
			IsPublished: published,
		})
		if err != nil {
			h.Cleanup(ctx, video.URL, thumb.URL)
			utils.RespondError(c, err)
			return
		}
		utils.Respond(c, http.StatusCreated, "video uploaded successfully", created)
	}
}

// GET /videos?owner=&page=&limit=
func (h *Handler) ListVideos() gin.HandlerFunc {
	return func(c *gin.Context) {
		var owner *bson.ObjectID
		if raw := strings.TrimSpace(c.Query("owner")); raw != "" {
			id, err := utils.ParseObjectID(raw, "owner")
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			owner = &id
		}
		page, limit := h.Limits.Pagination(c)
		videos, err := h.Content.ListVideos(c.Request.Context(), owner, page, limit)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "videos fetched", videos)
	}
}

// GET /videos/:videoId
func (h *Handler) GetVideo() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := utils.ObjectIDParam(c, "videoId")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		video, err := h.Content.GetVideo(c.Request.Context(), id, middleware.CurrentUserID(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "video fetched", video)
	}
}

// DELETE /videos/:videoId
func (h *Handler) DeleteVideo() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := caller(c)
		if !ok {
			return
		}
		id, err := utils.ObjectIDParam(c, "videoId")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if err := h.Content.DeleteVideo(c.Request.Context(), id, actor); err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "video deleted successfully", gin.H{"id": id})
	}
}
