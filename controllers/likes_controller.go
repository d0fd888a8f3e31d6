package controllers

import (
	"github.com/clipnest/backend/dto"
	"github.com/clipnest/backend/interaction"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
)

// POST /likes/:likedType with body {liked, like}
func (h *Handler) SetLike() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := caller(c)
		if !ok {
			return
		}
		var body dto.SetLikeDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.BadRequest(c, "both liked id and like flag are required")
			return
		}
		target, err := interaction.ParseTarget(c.Param("likedType"), body.Liked)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		state, err := h.Likes.SetLike(c.Request.Context(), actor, target, *body.Like)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, string(target.Kind)+" "+string(state)+" successfully", gin.H{
			"target": target,
			"state":  state,
		})
	}
}

// DELETE /likes/:likedType/:likedId
func (h *Handler) ClearLike() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := caller(c)
		if !ok {
			return
		}
		target, err := interaction.ParseTarget(c.Param("likedType"), c.Param("likedId"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		state, err := h.Likes.ClearLike(c.Request.Context(), actor, target)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "like removed", gin.H{"target": target, "state": state})
	}
}

// GET /likes/:likedType/:likedId/count
func (h *Handler) CountLikes() gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := interaction.ParseTarget(c.Param("likedType"), c.Param("likedId"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		counts, err := h.Likes.CountReactions(c.Request.Context(), target)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "like count fetched", counts)
	}
}
