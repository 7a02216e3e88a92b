package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/symposium-chat/symposium/store"
)

type conversationRequest struct {
	Title     string             `json:"title"`
	Mode      store.Mode         `json:"mode" binding:"required"`
	Agents    store.AgentBinding `json:"agents"`
	AutoReply bool               `json:"autoReply"`
	Settings  store.Settings     `json:"settings"`
}

func (s *Server) handleCreateConversation(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Agents.ValidateFor(req.Mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv := &store.Conversation{
		ID:        uuid.NewString(),
		UserID:    MustUserID(c),
		Title:     req.Title,
		Mode:      req.Mode,
		Agents:    req.Agents,
		AutoReply: req.AutoReply,
		Settings:  req.Settings,
	}
	if err := s.store.CreateConversation(c.Request.Context(), conv); err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "failed to create conversation"})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (s *Server) handleListConversations(c *gin.Context) {
	convs, err := s.store.ListConversations(c.Request.Context(), MustUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (s *Server) handleGetConversation(c *gin.Context) {
	conv, err := s.store.Conversation(c.Request.Context(), MustUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) handleUpdateConversation(c *gin.Context) {
	userID := MustUserID(c)
	conv, err := s.store.Conversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "conversation not found"})
		return
	}
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Agents.ValidateFor(req.Mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv.Title = req.Title
	conv.Mode = req.Mode
	conv.Agents = req.Agents
	conv.AutoReply = req.AutoReply
	conv.Settings = req.Settings
	if err := s.store.UpdateConversation(c.Request.Context(), conv); err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "failed to update conversation"})
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(c *gin.Context) {
	if err := s.store.DeleteConversation(c.Request.Context(), MustUserID(c), c.Param("id")); err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "conversation not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListMessages(c *gin.Context) {
	userID := MustUserID(c)
	conv, err := s.store.Conversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "conversation not found"})
		return
	}
	msgs, err := s.store.ListMessages(c.Request.Context(), conv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

type messagePatchRequest struct {
	Feedback *string `json:"feedback,omitempty"`
	Pinned   *bool   `json:"pinned,omitempty"`
}

// handlePatchMessage updates user-editable message flags (feedback, pin).
func (s *Server) handlePatchMessage(c *gin.Context) {
	userID := MustUserID(c)
	conv, err := s.store.Conversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "conversation not found"})
		return
	}
	msg, err := s.store.Message(c.Request.Context(), c.Param("messageId"))
	if err != nil || msg.ConversationID != conv.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	var req messagePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Feedback != nil {
		switch *req.Feedback {
		case "", "up", "down":
			msg.Feedback = *req.Feedback
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "feedback must be up, down or empty"})
			return
		}
	}
	if req.Pinned != nil {
		msg.Pinned = *req.Pinned
	}
	if err := s.store.UpdateMessage(c.Request.Context(), msg); err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "failed to update message"})
		return
	}
	c.JSON(http.StatusOK, msg)
}
