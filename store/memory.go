package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store implementation. Used by tests and as a
// fallback when no database DSN is configured.
type Memory struct {
	mu            sync.RWMutex
	users         map[string]*User
	conversations map[string]*Conversation
	messages      map[string]*Message
	usage         []UsageLog
	agents        map[string]map[string]*Agent // userID -> agentID -> agent
	seq           int64
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]*User),
		conversations: make(map[string]*Conversation),
		messages:      make(map[string]*Message),
		agents:        make(map[string]map[string]*Agent),
	}
}

// now returns a strictly increasing timestamp so creation order is total even
// within one clock tick.
func (m *Memory) now() time.Time {
	m.seq++
	return time.Now().UTC().Add(time.Duration(m.seq) * time.Nanosecond)
}

// CreateUser inserts an account record.
func (m *Memory) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	if _, ok := m.users[u.ID]; ok {
		return ErrConflict
	}
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

// UserByEmail looks up an account by email.
func (m *Memory) UserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// UserByID looks up an account by id.
func (m *Memory) UserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdateUser saves the full account record.
func (m *Memory) UpdateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = m.now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

// ListUsers returns all accounts in creation order.
func (m *Memory) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AddCredits adjusts the credit balance.
func (m *Memory) AddCredits(_ context.Context, userID string, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Credits += delta
	return nil
}

// CreateConversation inserts a thread record.
func (m *Memory) CreateConversation(_ context.Context, c *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[c.ID]; ok {
		return ErrConflict
	}
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.conversations[c.ID] = &cp
	return nil
}

// Conversation returns the thread only when owned by userID.
func (m *Memory) Conversation(_ context.Context, userID, id string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// ListConversations returns the user's threads, most recently updated first.
func (m *Memory) ListConversations(_ context.Context, userID string) ([]Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// UpdateConversation saves the full thread record.
func (m *Memory) UpdateConversation(_ context.Context, c *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[c.ID]; !ok {
		return ErrNotFound
	}
	c.UpdatedAt = m.now()
	cp := *c
	m.conversations[c.ID] = &cp
	return nil
}

// DeleteConversation removes the thread and cascades to its messages.
func (m *Memory) DeleteConversation(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(m.conversations, id)
	for mid, msg := range m.messages {
		if msg.ConversationID == id {
			delete(m.messages, mid)
		}
	}
	return nil
}

// CreateMessage appends to the transcript and refreshes the owning
// conversation's preview.
func (m *Memory) CreateMessage(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[msg.ID]; ok {
		return ErrConflict
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = m.now()
	}
	cp := *msg
	m.messages[msg.ID] = &cp
	if c, ok := m.conversations[msg.ConversationID]; ok {
		c.Preview = PreviewText(msg.Content)
		c.UpdatedAt = msg.CreatedAt
	}
	return nil
}

// Message looks up a transcript record by id.
func (m *Memory) Message(_ context.Context, id string) (*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *msg
	return &cp, nil
}

// ListMessages returns the transcript in creation order.
func (m *Memory) ListMessages(_ context.Context, conversationID string) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateMessage saves the full transcript record.
func (m *Memory) UpdateMessage(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[msg.ID]; !ok {
		return ErrNotFound
	}
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

// AppendUsage inserts an accounting record.
func (m *Memory) AppendUsage(_ context.Context, l *UsageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = m.now()
	}
	m.usage = append(m.usage, *l)
	return nil
}

// ListUsage returns a user's accounting records, newest first.
func (m *Memory) ListUsage(_ context.Context, userID string) ([]UsageLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []UsageLog
	for _, l := range m.usage {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CreateAgent inserts a custom agent row; duplicate per-user ids conflict.
func (m *Memory) CreateAgent(_ context.Context, a *Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.agents[a.UserID]
	if !ok {
		byID = make(map[string]*Agent)
		m.agents[a.UserID] = byID
	}
	if _, ok := byID[a.ID]; ok {
		return ErrConflict
	}
	a.CreatedAt = m.now()
	cp := *a
	byID[a.ID] = &cp
	return nil
}

// AgentByID looks up a custom agent scoped to its owner.
func (m *Memory) AgentByID(_ context.Context, userID, id string) (*Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[userID][id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// ListAgents returns the user's custom agents in creation order.
func (m *Memory) ListAgents(_ context.Context, userID string) ([]Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Agent
	for _, a := range m.agents[userID] {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateAgent saves the full custom agent row.
func (m *Memory) UpdateAgent(_ context.Context, a *Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.agents[a.UserID][a.ID]
	if !ok {
		return ErrNotFound
	}
	a.CreatedAt = existing.CreatedAt
	cp := *a
	m.agents[a.UserID][a.ID] = &cp
	return nil
}

// DeleteAgent removes a custom agent row.
func (m *Memory) DeleteAgent(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[userID][id]; !ok {
		return ErrNotFound
	}
	delete(m.agents[userID], id)
	return nil
}
