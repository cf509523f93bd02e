package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lodge-push-backend/internal/dispatch"
)

type sendRequest struct {
	UserID string `json:"userId" binding:"required"`
	Title  string `json:"title" binding:"required"`
	Body   string `json:"body"`
	Urgent bool   `json:"urgent"`
}

// Send fans a notification out to every registered device of a user.
// A user with no devices yields a 200 with an explanatory message, not an
// error: desk-only staff are expected.
func (h *Handler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and title are required"})
		return
	}

	count, err := h.dispatcher.SendToUser(c.Request.Context(), req.UserID, req.Title, req.Body, req.Urgent)
	if err != nil {
		if errors.Is(err, dispatch.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send notification"})
		return
	}

	if count == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "no subscriptions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}
