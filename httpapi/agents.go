package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/symposium-chat/symposium/agent"
)

type agentRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name" binding:"required"`
	Model       string `json:"model" binding:"required"`
	Instruction string `json:"instruction"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
	Color       string `json:"color"`
}

func statusForAgentErr(err error) int {
	switch {
	case errors.Is(err, agent.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrSystemAgent):
		return http.StatusForbidden
	case errors.Is(err, agent.ErrExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListAgents(c *gin.Context) {
	agents, err := s.resolver.List(c.Request.Context(), MustUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list agents"})
		return
	}
	c.JSON(http.StatusOK, agents)
}

func (s *Server) handleGetAgent(c *gin.Context) {
	cfg, err := s.resolver.Resolve(c.Request.Context(), MustUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(statusForAgentErr(err), gin.H{"error": "agent not found"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleCreateAgent(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		req.ID = uuid.NewString()
	}
	cfg := agent.Config{
		ID:          req.ID,
		Name:        req.Name,
		Model:       req.Model,
		Instruction: req.Instruction,
		Description: req.Description,
		Avatar:      req.Avatar,
		Color:       req.Color,
		Custom:      true,
	}
	if err := s.resolver.Create(c.Request.Context(), MustUserID(c), cfg); err != nil {
		c.JSON(statusForAgentErr(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (s *Server) handleUpdateAgent(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := agent.Config{
		ID:          c.Param("id"),
		Name:        req.Name,
		Model:       req.Model,
		Instruction: req.Instruction,
		Description: req.Description,
		Avatar:      req.Avatar,
		Color:       req.Color,
		Custom:      true,
	}
	if err := s.resolver.Update(c.Request.Context(), MustUserID(c), cfg); err != nil {
		c.JSON(statusForAgentErr(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleDeleteAgent(c *gin.Context) {
	if err := s.resolver.Delete(c.Request.Context(), MustUserID(c), c.Param("id")); err != nil {
		c.JSON(statusForAgentErr(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
