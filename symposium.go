// Package symposium wires the full multi-agent chat service: storage,
// provider registry, agent resolution, billing, orchestration engine and the
// HTTP API. Importers who only need a piece can depend on the subpackages
// directly.
package symposium

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/symposium-chat/symposium/agent"
	"github.com/symposium-chat/symposium/billing"
	"github.com/symposium-chat/symposium/config"
	"github.com/symposium-chat/symposium/httpapi"
	"github.com/symposium-chat/symposium/logging"
	"github.com/symposium-chat/symposium/metrics"
	"github.com/symposium-chat/symposium/model"
	"github.com/symposium-chat/symposium/model/providers"
	"github.com/symposium-chat/symposium/orchestrate"
	"github.com/symposium-chat/symposium/store"
)

// App is the fully wired service.
type App struct {
	Config   config.Config
	Logger   *logging.ChatLogger
	Store    store.Store
	Models   model.Source
	Resolver *agent.Resolver
	Billing  *billing.Service
	Engine   *orchestrate.Engine
	Server   *httpapi.Server
}

// New assembles an App from the given configuration. With an empty DB DSN the
// in-memory store is used, which suits local development and tests.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})

	var st store.Store
	if cfg.DBDSN != "" {
		g, err := store.Open(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		st = g
	} else {
		logger.Warn("no DB_DSN configured, using in-memory store")
		st = store.NewMemory()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	models := providers.NewRegistry(ctx, cfg.GeminiAPIKey, cfg.OpenAIAPIKey, cfg.AnthropicAPIKey)
	resolver := agent.NewResolver(st)
	bill := billing.NewService(st, st, func(o *billing.Options) {
		o.Logger = logger.WithComponent("billing")
	})
	engine := orchestrate.NewEngine(resolver, models, st, bill, func(o *orchestrate.Options) {
		o.Logger = logger.WithComponent("engine")
		o.Metrics = m
	})
	server := httpapi.NewServer(st, engine, resolver, bill, cfg.JWTSecret, func(o *httpapi.Options) {
		o.Logger = logger.WithComponent("httpapi")
		o.Gatherer = registry
		o.ChatRPS = cfg.ChatRPS
		o.ChatBurst = cfg.ChatBurst
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Models:   models,
		Resolver: resolver,
		Billing:  bill,
		Engine:   engine,
		Server:   server,
	}, nil
}

// Run starts the HTTP listener and blocks until it exits.
func (a *App) Run() error {
	return a.Server.Run(a.Config.Port)
}
