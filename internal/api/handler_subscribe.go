package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lodge-push-backend/internal/store"
)

type subscribeRequest struct {
	Subscription *store.Subscription `json:"subscription" binding:"required"`
	UserID       string              `json:"userId" binding:"required"`
}

// Subscribe registers a device's push subscription for a user.
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscription and userId are required"})
		return
	}

	if err := h.store.Upsert(c.Request.Context(), req.UserID, *req.Subscription); err != nil {
		if errors.Is(err, store.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
