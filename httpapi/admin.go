package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleAdminListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

type banRequest struct {
	Banned bool `json:"banned"`
}

func (s *Server) handleAdminBanUser(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.store.UserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "user not found"})
		return
	}
	u.Banned = req.Banned
	if err := s.store.UpdateUser(c.Request.Context(), u); err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "failed to update user"})
		return
	}
	c.JSON(http.StatusOK, u)
}

type creditRequest struct {
	Delta float64 `json:"delta" binding:"required"`
}

func (s *Server) handleAdminAdjustCredits(c *gin.Context) {
	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.AddCredits(c.Request.Context(), c.Param("id"), req.Delta); err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "failed to adjust credits"})
		return
	}
	u, err := s.store.UserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) handleAdminUserUsage(c *gin.Context) {
	logs, err := s.store.ListUsage(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
		return
	}
	var tokens int
	var cost float64
	for _, l := range logs {
		tokens += l.Tokens
		cost += l.Cost
	}
	c.JSON(http.StatusOK, gin.H{"totalTokens": tokens, "totalCost": cost, "records": logs})
}
