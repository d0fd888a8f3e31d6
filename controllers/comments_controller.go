package controllers

import (
	"net/http"
	"strings"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/dto"
	"github.com/clipnest/backend/interaction"
	"github.com/clipnest/backend/models"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CreateComment serves POST /comments and its target bound aliases.
func (h *Handler) CreateComment(from TargetSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		author, ok := caller(c)
		if !ok {
			return
		}
		var body dto.CreateCommentDTO
		if err := c.ShouldBind(&body); err != nil {
			utils.BadRequest(c, "content is required")
			return
		}
		target, err := from(c, body.ContentType, body.ContentID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		in := interaction.NewCommentInput{
			Target:  target,
			Content: body.Content,
		}
		if raw := strings.TrimSpace(body.ParentComment); raw != "" {
			parent, err := utils.ParseObjectID(raw, "parentComment")
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			in.ParentID = &parent
		}

		ctx := c.Request.Context()
		if in.Attachments, err = h.uploadAttachments(c); err != nil {
			utils.RespondError(c, err)
			return
		}
		comment, err := h.Comments.Create(ctx, author, in)
		if err != nil {
			h.Cleanup(ctx, in.Attachments...)
			utils.RespondError(c, err)
			return
		}
		utils.Respond(c, http.StatusCreated, "comment created successfully", comment)
	}
}

// maxAttachments bounds the files accepted on one comment.
const maxAttachments = 4

// uploadAttachments stores the "attachments" parts of a multipart comment.
// Attachment URLs are never taken from the client: the cleanup hook deletes
// them with the comment, so only blobs uploaded here may be referenced.
func (h *Handler) uploadAttachments(c *gin.Context) ([]string, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.InvalidArgumentf("invalid multipart form")
	}
	files := form.File["attachments"]
	if len(files) > maxAttachments {
		return nil, apperr.InvalidArgumentf("at most %d attachments are allowed", maxAttachments)
	}
	ctx := c.Request.Context()
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		up, _, err := h.upload(ctx, fh, h.Validator.Validate)
		if err != nil {
			h.Cleanup(ctx, urls...)
			return nil, err
		}
		urls = append(urls, up.URL)
	}
	return urls, nil
}

// ListComments serves GET /comments?contentType&contentId and its target
// bound aliases. page, limit and sort come from the query string.
func (h *Handler) ListComments(from TargetSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := from(c, c.Query("contentType"), c.Query("contentId"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		sort, ok := models.ParseCommentSort(c.Query("sort"))
		if !ok {
			utils.RespondError(c, apperr.InvalidArgumentf("sort must be newest, oldest or popular"))
			return
		}
		page, limit := h.Limits.Pagination(c)
		comments, err := h.Comments.List(c.Request.Context(), target, sort, page, limit)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "comments fetched", comments)
	}
}

func commentID(c *gin.Context) (bson.ObjectID, bool) {
	id, err := utils.ObjectIDParam(c, "commentId")
	if err != nil {
		utils.RespondError(c, err)
		return bson.ObjectID{}, false
	}
	return id, true
}

// PUT /comments/:commentId
func (h *Handler) UpdateComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := caller(c)
		if !ok {
			return
		}
		id, ok := commentID(c)
		if !ok {
			return
		}
		var body dto.UpdateCommentDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.BadRequest(c, "content is required")
			return
		}
		comment, err := h.Comments.Update(c.Request.Context(), id, actor, body.Content)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "comment updated successfully", comment)
	}
}

// DELETE /comments/:commentId
func (h *Handler) DeleteComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := caller(c)
		if !ok {
			return
		}
		id, ok := commentID(c)
		if !ok {
			return
		}
		removed, err := h.Comments.Delete(c.Request.Context(), id, actor)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "comment deleted successfully", gin.H{"id": id, "deletedCount": removed})
	}
}
