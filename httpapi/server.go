// Package httpapi exposes Symposium over HTTP: JSON endpoints for accounts,
// conversations and agents, plus the SSE chat stream.
package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/symposium-chat/symposium/agent"
	"github.com/symposium-chat/symposium/billing"
	"github.com/symposium-chat/symposium/logging"
	"github.com/symposium-chat/symposium/orchestrate"
	"github.com/symposium-chat/symposium/store"
)

// Options holds optional server dependencies.
type Options struct {
	Logger    logging.Logger
	Gatherer  prometheus.Gatherer
	ChatRPS   float64
	ChatBurst int
	DebugGin  bool
}

// Server wires handlers, middleware and routing.
type Server struct {
	store     store.Store
	engine    *orchestrate.Engine
	resolver  *agent.Resolver
	billing   *billing.Service
	jwtSecret string
	logger    logging.Logger
	limiters  *limiterPool
	gatherer  prometheus.Gatherer
	router    *gin.Engine
}

// NewServer builds the HTTP server and its route table.
func NewServer(st store.Store, engine *orchestrate.Engine, resolver *agent.Resolver, bill *billing.Service, jwtSecret string, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}, ChatRPS: 2, ChatBurst: 5}
	for _, fn := range optFns {
		fn(&opts)
	}
	if !opts.DebugGin {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		store:     st,
		engine:    engine,
		resolver:  resolver,
		billing:   bill,
		jwtSecret: jwtSecret,
		logger:    opts.Logger,
		limiters:  newLimiterPool(opts.ChatRPS, opts.ChatBurst),
		gatherer:  opts.Gatherer,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)

	authed := api.Group("", s.AuthMiddleware())
	authed.GET("/me", s.handleMe)
	authed.GET("/billing/balance", s.handleBalance)
	authed.POST("/billing/purchase", s.handlePurchase)
	authed.POST("/billing/upgrade", s.handleUpgrade)
	authed.GET("/billing/usage", s.handleUsage)

	authed.GET("/agents", s.handleListAgents)
	authed.POST("/agents", s.handleCreateAgent)
	authed.GET("/agents/:id", s.handleGetAgent)
	authed.PUT("/agents/:id", s.handleUpdateAgent)
	authed.DELETE("/agents/:id", s.handleDeleteAgent)

	authed.POST("/conversations", s.handleCreateConversation)
	authed.GET("/conversations", s.handleListConversations)
	authed.GET("/conversations/:id", s.handleGetConversation)
	authed.PUT("/conversations/:id", s.handleUpdateConversation)
	authed.DELETE("/conversations/:id", s.handleDeleteConversation)
	authed.GET("/conversations/:id/messages", s.handleListMessages)
	authed.PATCH("/conversations/:id/messages/:messageId", s.handlePatchMessage)
	authed.POST("/conversations/:id/messages", s.RateLimitMiddleware(), s.handleChat)

	admin := authed.Group("/admin", s.AdminMiddleware())
	admin.GET("/users", s.handleAdminListUsers)
	admin.POST("/users/:id/ban", s.handleAdminBanUser)
	admin.POST("/users/:id/credits", s.handleAdminAdjustCredits)
	admin.GET("/users/:id/usage", s.handleAdminUserUsage)

	return r
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP listener on the given port and blocks.
func (s *Server) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("listening on %s", addr)
	return s.router.Run(addr)
}
