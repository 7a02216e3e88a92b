// Package agent resolves agent identifiers to persona configurations. System
// agents live in a process-wide read-only table populated at startup; custom
// agents are owned by exactly one user and resolved through the store.
package agent

import (
	"context"
	"errors"

	"github.com/symposium-chat/symposium/store"
)

// Sentinel errors.
var (
	// ErrNotFound indicates an unknown agent id for the given user.
	ErrNotFound = errors.New("agent not found")
	// ErrSystemAgent indicates an attempted mutation of a system agent.
	ErrSystemAgent = errors.New("cannot modify system agent")
	// ErrExists indicates a duplicate custom agent id for the same user.
	ErrExists = errors.New("agent already exists")
)

// Config is a persona configuration: the model backing the agent plus its
// optional system instruction and presentation metadata.
type Config struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Model       string `json:"model"`
	Instruction string `json:"instruction,omitempty"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Color       string `json:"color,omitempty"`
	Custom      bool   `json:"custom"`
}

// systemAgents is the immutable built-in persona table. Order is significant:
// listings present these agents first, in this order.
var systemAgents = []Config{
	{
		ID:          "sage",
		Name:        "Sage",
		Model:       "gemini-2.5-pro",
		Instruction: "You are a thoughtful generalist. Weigh trade-offs carefully and reason step by step before answering.",
		Description: "Deliberate, broad-knowledge thinker",
		Avatar:      "🦉",
		Color:       "#6b5b95",
	},
	{
		ID:          "scout",
		Name:        "Scout",
		Model:       "gemini-2.0-flash",
		Instruction: "You are a fast researcher. Answer concisely, favoring breadth over depth, and flag anything you are unsure about.",
		Description: "Quick, concise responder",
		Avatar:      "🐇",
		Color:       "#45b8ac",
	},
	{
		ID:          "advocate",
		Name:        "Advocate",
		Model:       "claude-3-5-sonnet-20241022",
		Instruction: "You argue in favor of the position under discussion. Build the strongest honest case you can.",
		Description: "Persuasive proponent for debates",
		Avatar:      "⚖️",
		Color:       "#d64161",
	},
	{
		ID:          "skeptic",
		Name:        "Skeptic",
		Model:       "gpt-4o",
		Instruction: "You critically examine the position under discussion. Surface weaknesses, counterexamples and risks.",
		Description: "Critical opponent for debates",
		Avatar:      "🔍",
		Color:       "#ff7b25",
	},
	{
		ID:          "arbiter",
		Name:        "Arbiter",
		Model:       "gemini-2.5-pro",
		Instruction: "You are a neutral moderator. Summarize the strongest points from each side and deliver a balanced verdict.",
		Description: "Neutral debate moderator",
		Avatar:      "🏛️",
		Color:       "#86af49",
	},
	{
		ID:          "pragmatist",
		Name:        "Pragmatist",
		Model:       "gpt-4o-mini",
		Instruction: "You focus on what can actually be shipped. Prefer simple, concrete, actionable suggestions.",
		Description: "Practical, implementation-minded engineer",
		Avatar:      "🔧",
		Color:       "#618685",
	},
}

// SystemAgents returns a copy of the built-in persona table in its fixed
// configuration order.
func SystemAgents() []Config {
	out := make([]Config, len(systemAgents))
	copy(out, systemAgents)
	return out
}

// IsSystemAgent reports whether id names a built-in persona.
func IsSystemAgent(id string) bool {
	_, ok := systemAgent(id)
	return ok
}

func systemAgent(id string) (Config, bool) {
	for _, a := range systemAgents {
		if a.ID == id {
			return a, true
		}
	}
	return Config{}, false
}

// Resolver resolves and mutates agent configurations. System agents take
// precedence and never touch the store.
type Resolver struct {
	agents store.AgentStore
}

// NewResolver creates a Resolver backed by the given agent store.
func NewResolver(agents store.AgentStore) *Resolver {
	return &Resolver{agents: agents}
}

// Resolve returns the configuration for agentID: the system table is
// consulted first (no ownership check), then the user's custom agents.
func (r *Resolver) Resolve(ctx context.Context, userID, agentID string) (Config, error) {
	if cfg, ok := systemAgent(agentID); ok {
		return cfg, nil
	}
	row, err := r.agents.AgentByID(ctx, userID, agentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Config{}, ErrNotFound
		}
		return Config{}, err
	}
	return fromRow(*row), nil
}

// List returns all system agents followed by the user's custom agents in
// creation order.
func (r *Resolver) List(ctx context.Context, userID string) ([]Config, error) {
	out := SystemAgents()
	rows, err := r.agents.ListAgents(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Create adds a custom agent for the user. Ids colliding with a system agent
// are rejected with ErrSystemAgent; duplicates for the same user with
// ErrExists.
func (r *Resolver) Create(ctx context.Context, userID string, cfg Config) error {
	if IsSystemAgent(cfg.ID) {
		return ErrSystemAgent
	}
	err := r.agents.CreateAgent(ctx, toRow(userID, cfg))
	if errors.Is(err, store.ErrConflict) {
		return ErrExists
	}
	return err
}

// Update modifies a custom agent owned by the user.
func (r *Resolver) Update(ctx context.Context, userID string, cfg Config) error {
	if IsSystemAgent(cfg.ID) {
		return ErrSystemAgent
	}
	err := r.agents.UpdateAgent(ctx, toRow(userID, cfg))
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Delete removes a custom agent owned by the user.
func (r *Resolver) Delete(ctx context.Context, userID, agentID string) error {
	if IsSystemAgent(agentID) {
		return ErrSystemAgent
	}
	err := r.agents.DeleteAgent(ctx, userID, agentID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func fromRow(a store.Agent) Config {
	return Config{
		ID:          a.ID,
		Name:        a.Name,
		Model:       a.Model,
		Instruction: a.Instruction,
		Description: a.Description,
		Avatar:      a.Avatar,
		Color:       a.Color,
		Custom:      true,
	}
}

func toRow(userID string, cfg Config) *store.Agent {
	return &store.Agent{
		ID:          cfg.ID,
		UserID:      userID,
		Name:        cfg.Name,
		Model:       cfg.Model,
		Instruction: cfg.Instruction,
		Description: cfg.Description,
		Avatar:      cfg.Avatar,
		Color:       cfg.Color,
	}
}
