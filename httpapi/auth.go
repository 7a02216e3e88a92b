package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/symposium-chat/symposium/billing"
	"github.com/symposium-chat/symposium/store"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  store.User `json:"user"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	u := &store.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Plan:         billing.PlanFree,
		Credits:      billing.FreeSignupCredits,
	}
	if err := s.store.CreateUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}
	token, err := NewToken(s.jwtSecret, u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusCreated, authResponse{Token: token, User: *u})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.store.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if u.Banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "account suspended"})
		return
	}
	token, err := NewToken(s.jwtSecret, u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: *u})
}

func (s *Server) handleMe(c *gin.Context) {
	u, err := s.store.UserByID(c.Request.Context(), MustUserID(c))
	if err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) handleBalance(c *gin.Context) {
	plan, credits, err := s.billing.Balance(c.Request.Context(), MustUserID(c))
	if err != nil {
		c.JSON(statusForStoreErr(err), gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "credits": credits})
}

type purchaseRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

func (s *Server) handlePurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.billing.Purchase(c.Request.Context(), MustUserID(c), req.Amount); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purchase failed"})
		return
	}
	plan, credits, _ := s.billing.Balance(c.Request.Context(), MustUserID(c))
	c.JSON(http.StatusOK, gin.H{"plan": plan, "credits": credits})
}

func (s *Server) handleUpgrade(c *gin.Context) {
	if err := s.billing.Upgrade(c.Request.Context(), MustUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upgrade failed"})
		return
	}
	plan, credits, _ := s.billing.Balance(c.Request.Context(), MustUserID(c))
	c.JSON(http.StatusOK, gin.H{"plan": plan, "credits": credits})
}

func (s *Server) handleUsage(c *gin.Context) {
	logs, err := s.billing.Usage(c.Request.Context(), MustUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
