// Package controllers holds the gin handlers of the HTTP API.
package controllers

import (
	"context"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/clipnest/backend/apperr"
	"github.com/clipnest/backend/auth"
	"github.com/clipnest/backend/content"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/interaction"
	"github.com/clipnest/backend/media"
	"github.com/clipnest/backend/middleware"
	"github.com/clipnest/backend/models"
	"github.com/clipnest/backend/subscription"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Users     database.UserRepository
	Tokens    *auth.Service
	Likes     *interaction.LikeEngine
	Comments  *interaction.CommentManager
	Graph     *subscription.Graph
	Content   *content.Service
	Media     media.Store
	Validator *media.Validator
	Cleanup   media.CleanupFunc
	Cookies   utils.CookieOptions
	Limits    utils.QueryLimits
	Timeout   time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

type Handler struct {
	Deps
}

func New(deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Cleanup == nil {
		deps.Cleanup = media.Cleanup(deps.Media, deps.Logger)
	}
	return &Handler{Deps: deps}
}

// caller returns the authenticated user id. Routes using it sit behind
// RequireAuth, so a miss means the route was wired without it.
func caller(c *gin.Context) (bson.ObjectID, bool) {
	id := middleware.CurrentUserID(c)
	if id == nil {
		utils.RespondError(c, apperr.Unauthorizedf("authentication required"))
		return bson.ObjectID{}, false
	}
	return *id, true
}

func (h *Handler) storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return database.WithTimeout(c.Request.Context(), h.Timeout)
}

// upload validates fh with check and stores it.
func (h *Handler) upload(ctx context.Context, fh *multipart.FileHeader, check func(*multipart.FileHeader) (string, error)) (media.Uploaded, string, error) {
	mimeType, err := check(fh)
	if err != nil {
		return media.Uploaded{}, "", err
	}
	up, err := media.UploadMultipart(ctx, h.Media, fh)
	if err != nil {
		return media.Uploaded{}, "", apperr.Internalf(err, "failed to upload %s", fh.Filename)
	}
	return up, mimeType, nil
}

// optionalFile returns the named multipart file or nil when absent.
func optionalFile(c *gin.Context, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

// TargetSource extracts the commented or liked content from a request. kind
// and id are the values carried in the body or query string.
type TargetSource func(c *gin.Context, kind, id string) (models.Target, error)

// FromRequest reads the target from the body or query values.
func FromRequest(_ *gin.Context, kind, id string) (models.Target, error) {
	return interaction.ParseTarget(kind, id)
}

// FromPath binds the target kind and reads the id from a path parameter.
func FromPath(kind models.TargetKind, param string) TargetSource {
	return func(c *gin.Context, _, _ string) (models.Target, error) {
		return interaction.ParseTarget(string(kind), c.Param(param))
	}
}
