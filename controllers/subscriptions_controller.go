package controllers

import (
	"net/http"

	"github.com/clipnest/backend/dto"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
)

// POST /subscriptions with body {channelId}
func (h *Handler) Subscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		subscriber, ok := caller(c)
		if !ok {
			return
		}
		var body dto.SubscribeDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.BadRequest(c, "channelId is required")
			return
		}
		channel, err := utils.ParseObjectID(body.ChannelID, "channelId")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		sub, err := h.Graph.Subscribe(c.Request.Context(), subscriber, channel)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.Respond(c, http.StatusCreated, "subscribed successfully", sub)
	}
}

// GET /subscriptions
func (h *Handler) ListSubscriptions() gin.HandlerFunc {
	return func(c *gin.Context) {
		subscriber, ok := caller(c)
		if !ok {
			return
		}
		channels, err := h.Graph.ListSubscriptions(c.Request.Context(), subscriber)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "subscriptions fetched", channels)
	}
}

// DELETE /subscriptions/:channelId
func (h *Handler) Unsubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		subscriber, ok := caller(c)
		if !ok {
			return
		}
		channel, err := utils.ObjectIDParam(c, "channelId")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if err := h.Graph.Unsubscribe(c.Request.Context(), subscriber, channel); err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OK(c, "unsubscribed successfully", gin.H{"channelId": channel})
	}
}
