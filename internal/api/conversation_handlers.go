package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/team-collab/internal/conversation"
	"github.com/headless-pm/team-collab/internal/models"
)

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) ListMessages(c *gin.Context) {
	kind, err := models.ParseConversationType(c.Param("type"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.conversations.History(kind, c.Param("target")))
}

func (h *Handler) SendMessage(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.conversations.Send(models.ConversationType(c.Param("type")), c.Param("target"), user, req.Content)
	if err != nil {
		if errors.Is(err, conversation.ErrPermissionDenied) {
			h.metrics.MessageDenied()
		}
		h.respondError(c, err)
		return
	}

	h.metrics.MessageSent(string(msg.ConversationType))
	c.JSON(http.StatusCreated, msg)
}
