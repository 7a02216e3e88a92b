// Package store defines the durable records of Symposium (users,
// conversations, messages, custom agents, usage logs) and the interfaces the
// rest of the system depends on. Two implementations exist: Gorm (MySQL) for
// production and Memory for tests and local development.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/symposium-chat/symposium/model"
)

// Sentinel errors shared by all implementations.
var (
	// ErrNotFound indicates a missing or non-owned record.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation (duplicate id or email).
	ErrConflict = errors.New("already exists")
)

// Mode selects which agents participate in a conversation and how.
type Mode string

// Conversation modes.
const (
	ModeCollaborative Mode = "collaborative"
	ModeParallel      Mode = "parallel"
	ModeExpertCouncil Mode = "expert-council"
	ModeDebate        Mode = "debate"
)

// AgentBinding maps the logical roles of a conversation mode to agent
// identifiers. Which fields must be populated depends on the mode.
type AgentBinding struct {
	System1ID   string   `json:"system1Id,omitempty"`
	System2ID   string   `json:"system2Id,omitempty"`
	ProponentID string   `json:"proponentId,omitempty"`
	OpponentID  string   `json:"opponentId,omitempty"`
	ModeratorID string   `json:"moderatorId,omitempty"`
	CouncilIDs  []string `json:"councilIds,omitempty"`
}

// ValidateFor checks that the populated binding fields are consistent with
// the given mode.
func (b AgentBinding) ValidateFor(m Mode) error {
	switch m {
	case ModeCollaborative, ModeParallel:
		if b.System1ID == "" || b.System2ID == "" {
			return fmt.Errorf("mode %s requires system1Id and system2Id", m)
		}
	case ModeDebate:
		if b.ProponentID == "" || b.OpponentID == "" {
			return fmt.Errorf("mode %s requires proponentId and opponentId", m)
		}
	case ModeExpertCouncil:
		if len(b.CouncilIDs) == 0 {
			return fmt.Errorf("mode %s requires councilIds", m)
		}
	default:
		return fmt.Errorf("unknown mode %q", m)
	}
	return nil
}

// Settings holds free-form per-conversation preferences.
type Settings struct {
	AutoScroll     bool `json:"autoScroll,omitempty"`
	ExtendedDebate bool `json:"extendedDebate,omitempty"`
	// ThinkingBudget, when positive, requests extended deliberation from
	// models that support it.
	ThinkingBudget int32 `json:"thinkingBudget,omitempty"`
}

// User is an account record. Credits are consumed by usage appends.
type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Email        string    `gorm:"size:190;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Admin        bool      `json:"admin"`
	Banned       bool      `json:"banned"`
	Plan         string    `gorm:"size:20" json:"plan"`
	Credits      float64   `json:"credits"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Conversation is a chat thread owned by exactly one user. Deleting it
// cascades to its messages.
type Conversation struct {
	ID        string       `gorm:"primaryKey;size:64" json:"id"`
	UserID    string       `gorm:"index;size:64;not null" json:"userId"`
	Title     string       `gorm:"size:255" json:"title"`
	Preview   string       `gorm:"size:255" json:"preview"`
	Mode      Mode         `gorm:"size:20;not null" json:"mode"`
	Agents    AgentBinding `gorm:"serializer:json;type:text" json:"agents"`
	AutoReply bool         `json:"autoReply"`
	Settings  Settings     `gorm:"serializer:json;type:text" json:"settings"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Sender types for messages.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// MessageMeta carries optional message metadata.
type MessageMeta struct {
	RelatedMessageID string `json:"relatedMessageId,omitempty"`
	Thinking         bool   `json:"thinking,omitempty"`
}

// Message is an atomic turn unit within a conversation. Messages are totally
// ordered by creation time; that order is the canonical transcript.
type Message struct {
	ID             string             `gorm:"primaryKey;size:64" json:"id"`
	ConversationID string             `gorm:"index;size:64;not null" json:"conversationId"`
	SenderType     string             `gorm:"size:10;not null" json:"senderType"`
	SenderID       string             `gorm:"size:64" json:"senderId"`
	Content        string             `gorm:"type:text" json:"content"`
	Attachments    []model.Attachment `gorm:"serializer:json;type:text" json:"attachments,omitempty"`
	Cost           float64            `json:"cost,omitempty"`
	Meta           MessageMeta        `gorm:"serializer:json;type:text" json:"meta,omitempty"`
	Feedback       string             `gorm:"size:8" json:"feedback,omitempty"` // up, down or empty
	Pinned         bool               `json:"pinned"`
	CreatedAt      time.Time          `gorm:"index" json:"createdAt"`
}

// UsageLog is an append-only accounting record. Never mutated after creation.
type UsageLog struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	UserID         string    `gorm:"index;size:64;not null" json:"userId"`
	ConversationID string    `gorm:"size:64" json:"conversationId,omitempty"`
	MessageID      string    `gorm:"size:64" json:"messageId,omitempty"`
	AgentID        string    `gorm:"size:64" json:"agentId,omitempty"`
	Tokens         int       `json:"tokens"`
	Cost           float64   `json:"cost"`
	Model          string    `gorm:"size:128" json:"model"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Agent is a user-defined persona row. The id is unique per user, not
// globally, hence the composite primary key.
type Agent struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	UserID      string    `gorm:"primaryKey;size:64" json:"userId"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Model       string    `gorm:"size:128;not null" json:"model"`
	Instruction string    `gorm:"type:text" json:"instruction,omitempty"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	Avatar      string    `gorm:"size:255" json:"avatar,omitempty"`
	Color       string    `gorm:"size:16" json:"color,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserStore manages account records.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context) ([]User, error)
	// AddCredits adjusts a user's credit balance by delta (may be negative).
	AddCredits(ctx context.Context, userID string, delta float64) error
}

// ConversationStore manages chat threads. Lookup is ownership-checked: a
// conversation owned by another user behaves as not found.
type ConversationStore interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	Conversation(ctx context.Context, userID, id string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	UpdateConversation(ctx context.Context, c *Conversation) error
	DeleteConversation(ctx context.Context, userID, id string) error
}

// MessageStore manages transcript records. CreateMessage also refreshes the
// owning conversation's preview text.
type MessageStore interface {
	CreateMessage(ctx context.Context, m *Message) error
	Message(ctx context.Context, id string) (*Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	UpdateMessage(ctx context.Context, m *Message) error
}

// UsageStore appends and reports accounting records.
type UsageStore interface {
	AppendUsage(ctx context.Context, l *UsageLog) error
	ListUsage(ctx context.Context, userID string) ([]UsageLog, error)
}

// AgentStore manages custom agent rows, scoped per user.
type AgentStore interface {
	CreateAgent(ctx context.Context, a *Agent) error
	AgentByID(ctx context.Context, userID, id string) (*Agent, error)
	ListAgents(ctx context.Context, userID string) ([]Agent, error)
	UpdateAgent(ctx context.Context, a *Agent) error
	DeleteAgent(ctx context.Context, userID, id string) error
}

// Store aggregates all record stores behind one dependency.
type Store interface {
	UserStore
	ConversationStore
	MessageStore
	UsageStore
	AgentStore
}

// PreviewText derives the conversation preview from message content.
// Truncation lands on a rune boundary so the preview stays valid UTF-8.
func PreviewText(content string) string {
	const max = 120
	if len(content) <= max {
		return content
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
