package controllers

import (
	"net/http"
	"strings"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/content"
	"github.com/clipnest/backend/dto"
	"github.com/clipnest/backend/media"
	"github.com/clipnest/backend/middleware"
	"github.com/clipnest/backend/models"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// splitTags accepts repeated tag fields as well as comma separated values.
func splitTags(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

// uploadPostMedia stores the optional "media" part and classifies it. It
// returns an empty URL when the request carries no media.
func (h *Handler) uploadPostMedia(c *gin.Context) (string, models.MediaType, error) {
	fh := optionalFile(c, "media")
	if fh == nil {
		return "", "", nil
	}
	ctx := c.Request.Context()
	up, mimeType, err := h.upload(ctx, fh, h.Validator.Validate)
	if err != nil {
		return "", "", err
	}
	switch {
	case media.IsImage(mimeType):
		return up.URL, models.MediaImage, nil
	case media.IsVideo(mimeType):
		return up.URL, models.MediaVideo, nil
	}
	h.Cleanup(ctx, up.URL)
	return "", "", apperr.InvalidArgumentf("media must be an image or a video")
}

// POST /posts
func (h *Handler) CreatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		author, ok := caller(c)
		if !ok {
			return
		}
		var body dto.CreatePostDTO
		if err := c.ShouldBind(&body); err != nil {
			utils.BadRequest(c, "title and content are required")
			return
		}

		in := content.NewPost{
			Title:      body.Title,
			Content:    body.Content,
			Tags:       splitTags(body.Tags),
			Visibility: models.Visibility(strings.ToLower(strings.TrimSpace(body.Visibility))),
		}

		ctx := c.Request.Context()
		var err error
		if in.MediaURL, in.MediaType, err = h.uploadPostMedia(c); err != nil {
			utils.RespondError(c, err)
			return
		}

		post, err := h.Content.CreatePost(ctx, author, in)
		if err != nil {
			h.Cleanup(ctx, in.MediaURL)
			utils.RespondError(c, err)
			return
		}
		utils.Respond(c, http.StatusCreated, "post created successfully", post)
	}
}

// GET /posts?author=&page=&limit=
func (h *Handler) ListPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		var author *bson.ObjectID
		if raw := strings.TrimSpace(c.Query("author")); raw != "" {
			id, err := utils.ParseObjectID(raw, "author")
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			author = &id
		}
		page, limit := h.Limits.Pagination(c)
		posts, err := h.Content.ListPosts(c.Request.Context(), author, middleware.CurrentUserID(c), page, limit)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "posts fetched", posts)
	}
}

// GET /posts/:postId
func (h *Handler) GetPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := utils.ObjectIDParam(c, "postId")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		post, err := h.Content.GetPost(c.Request.Context(), id, middleware.CurrentUserID(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "post fetched", post)
	}
}

// PUT /posts/:postId
func (h *Handler) UpdatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := caller(c)
		if !ok {
			return
		}
		id, err := utils.ObjectIDParam(c, "postId")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		var body dto.UpdatePostDTO
		if err := c.ShouldBind(&body); err != nil {
			utils.BadRequest(c, "invalid post update")
			return
		}

		in := content.PostUpdate{
			Title:      body.Title,
			Content:    body.Content,
			Visibility: models.Visibility(strings.ToLower(strings.TrimSpace(body.Visibility))),
		}
		if body.Tags != nil {
			in.Tags = splitTags(body.Tags)
			if in.Tags == nil {
				in.Tags = []string{}
			}
		}

		ctx := c.Request.Context()
		if in.MediaURL, in.MediaType, err = h.uploadPostMedia(c); err != nil {
			utils.RespondError(c, err)
			return
		}
		post, err := h.Content.UpdatePost(ctx, id, actor, in)
		if err != nil {
			h.Cleanup(ctx, in.MediaURL)
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "post updated successfully", post)
	}
}

// DELETE /posts/:postId
func (h *Handler) DeletePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := caller(c)
		if !ok {
			return
		}
		id, err := utils.ObjectIDParam(c, "postId")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if err := h.Content.DeletePost(c.Request.Context(), id, actor); err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "post deleted successfully", gin.H{"id": id})
	}
}
