package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/symposium-chat/symposium/billing"
	"github.com/symposium-chat/symposium/model"
	"github.com/symposium-chat/symposium/orchestrate"
	"github.com/symposium-chat/symposium/store"
)

type chatRequest struct {
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

// handleChat runs one orchestrated turn and streams its events over SSE.
// All request validation happens before the stream opens; once the first
// event is written the status is fixed and failures travel in-band.
func (s *Server) handleChat(c *gin.Context) {
	userID := MustUserID(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	conv, err := s.store.Conversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	if err := s.billing.Authorize(c.Request.Context(), userID); err != nil {
		if errors.Is(err, billing.ErrInsufficientCredits) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient credits"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check balance"})
		return
	}

	sse := newSSEWriter(c)
	err = s.engine.Run(c.Request.Context(), orchestrate.TurnRequest{
		Conversation: conv,
		UserID:       userID,
		Content:      req.Content,
		Attachments:  req.Attachments,
	}, sse.Emit)
	if err != nil {
		s.logger.Debug("chat stream ended early for conversation %s: %v", conv.ID, err)
	}
}
