package controllers

import (
	"github.com/clipnest/backend/middleware"
	"github.com/clipnest/backend/models"
	"github.com/gin-gonic/gin"
)

// Mount registers the API under r. authLimit guards the credential routes.
func (h *Handler) Mount(r gin.IRouter, session *middleware.Session, authLimit gin.HandlerFunc) {
	requireAuth := session.RequireAuth()
	optionalAuth := session.OptionalAuth()

	users := r.Group("/users")
	{
		users.POST("/register", authLimit, h.Register())
		users.POST("/login", authLimit, h.Login())
		users.POST("/refresh-token", authLimit, h.RefreshToken())

		users.POST("/logout", requireAuth, h.Logout())
		users.POST("/change-password", requireAuth, h.ChangePassword())
		users.GET("/current-user", requireAuth, h.CurrentUser())
		users.PATCH("/update-account", requireAuth, h.UpdateAccount())
		users.PATCH("/update-avatar", requireAuth, h.UpdateAvatar())
		users.PATCH("/update-cover-image", requireAuth, h.UpdateCoverImage())
		users.GET("/c/:username", requireAuth, h.ChannelProfile())
		users.GET("/history", requireAuth, h.WatchHistory())
	}

	videos := r.Group("/videos")
	{
		videos.GET("", h.ListVideos())
		videos.POST("", requireAuth, h.CreateVideo())
		videos.GET("/:videoId", optionalAuth, h.GetVideo())
		videos.DELETE("/:videoId", requireAuth, h.DeleteVideo())
		videos.GET("/:videoId/comments", h.ListComments(FromPath(models.KindVideo, "videoId")))
		videos.POST("/:videoId/comments", requireAuth, h.CreateComment(FromPath(models.KindVideo, "videoId")))
	}

	posts := r.Group("/posts")
	{
		posts.GET("", optionalAuth, h.ListPosts())
		posts.POST("", requireAuth, h.CreatePost())
		posts.GET("/:postId", optionalAuth, h.GetPost())
		posts.PUT("/:postId", requireAuth, h.UpdatePost())
		posts.DELETE("/:postId", requireAuth, h.DeletePost())
		posts.GET("/:postId/comments", h.ListComments(FromPath(models.KindPost, "postId")))
		posts.POST("/:postId/comments", requireAuth, h.CreateComment(FromPath(models.KindPost, "postId")))
	}

	likes := r.Group("/likes")
	{
		likes.POST("/:likedType", requireAuth, h.SetLike())
		likes.DELETE("/:likedType/:likedId", requireAuth, h.ClearLike())
		likes.GET("/:likedType/:likedId/count", h.CountLikes())
	}

	comments := r.Group("/comments")
	{
		comments.GET("", h.ListComments(FromRequest))
		comments.POST("", requireAuth, h.CreateComment(FromRequest))
		comments.PUT("/:commentId", requireAuth, h.UpdateComment())
		comments.DELETE("/:commentId", requireAuth, h.DeleteComment())
	}

	subs := r.Group("/subscriptions", requireAuth)
	{
		subs.POST("", h.Subscribe())
		subs.GET("", h.ListSubscriptions())
		subs.DELETE("/:channelId", h.Unsubscribe())
	}
}
