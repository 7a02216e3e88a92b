package store

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u := &User{ID: "u1", Name: "Ada", Email: "ada@example.com", Plan: "free", Credits: 5}
	require.NoError(t, m.CreateUser(ctx, u))

	assert.ErrorIs(t, m.CreateUser(ctx, &User{ID: "u2", Email: "ada@example.com"}), ErrConflict)
	assert.ErrorIs(t, m.CreateUser(ctx, &User{ID: "u1", Email: "other@example.com"}), ErrConflict)

	got, err := m.UserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	require.NoError(t, m.AddCredits(ctx, "u1", -2.5))
	got, err = m.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Credits)

	assert.ErrorIs(t, m.AddCredits(ctx, "nope", 1), ErrNotFound)
}

func TestMemoryConversationOwnership(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateConversation(ctx, &Conversation{ID: "c1", UserID: "u1", Mode: ModeCollaborative}))

	_, err := m.Conversation(ctx, "u1", "c1")
	assert.NoError(t, err)

	// Another user's lookup behaves as not found.
	_, err = m.Conversation(ctx, "u2", "c1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.DeleteConversation(ctx, "u2", "c1"), ErrNotFound)
}

func TestMemoryDeleteConversationCascades(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateConversation(ctx, &Conversation{ID: "c1", UserID: "u1", Mode: ModeDebate}))
	require.NoError(t, m.CreateMessage(ctx, &Message{ID: "m1", ConversationID: "c1", SenderType: SenderUser, Content: "hi"}))
	require.NoError(t, m.CreateMessage(ctx, &Message{ID: "m2", ConversationID: "c1", SenderType: SenderAgent, Content: "hello"}))

	require.NoError(t, m.DeleteConversation(ctx, "u1", "c1"))

	msgs, err := m.ListMessages(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	_, err = m.Message(ctx, "m1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryMessageOrderAndPreview(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateConversation(ctx, &Conversation{ID: "c1", UserID: "u1", Mode: ModeParallel}))
	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, m.CreateMessage(ctx, &Message{ID: id, ConversationID: "c1", SenderType: SenderUser, Content: "msg " + id}))
	}

	msgs, err := m.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m3", msgs[2].ID)

	conv, err := m.Conversation(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "msg m3", conv.Preview)
}

func TestMemoryListConversationsByRecency(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateConversation(ctx, &Conversation{ID: "c1", UserID: "u1", Mode: ModeDebate}))
	require.NoError(t, m.CreateConversation(ctx, &Conversation{ID: "c2", UserID: "u1", Mode: ModeDebate}))

	// A new message bumps c1 above c2.
	require.NoError(t, m.CreateMessage(ctx, &Message{ID: "m1", ConversationID: "c1", SenderType: SenderUser, Content: "bump"}))

	convs, err := m.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "c1", convs[0].ID)
}

func TestMemoryUsageNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.AppendUsage(ctx, &UsageLog{ID: "l1", UserID: "u1", Tokens: 5}))
	require.NoError(t, m.AppendUsage(ctx, &UsageLog{ID: "l2", UserID: "u1", Tokens: 7}))
	require.NoError(t, m.AppendUsage(ctx, &UsageLog{ID: "l3", UserID: "u2", Tokens: 9}))

	logs, err := m.ListUsage(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "l2", logs[0].ID)
}

func TestMemoryAgentsScopedPerUser(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateAgent(ctx, &Agent{ID: "a1", UserID: "u1", Name: "One", Model: "gpt-4o"}))
	assert.ErrorIs(t, m.CreateAgent(ctx, &Agent{ID: "a1", UserID: "u1", Name: "Dup", Model: "gpt-4o"}), ErrConflict)
	require.NoError(t, m.CreateAgent(ctx, &Agent{ID: "a1", UserID: "u2", Name: "Other", Model: "gpt-4o"}))

	a, err := m.AgentByID(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "One", a.Name)

	_, err = m.AgentByID(ctx, "u3", "a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreviewText(t *testing.T) {
	assert.Equal(t, "short", PreviewText("short"))
	long := strings.Repeat("x", 300)
	assert.Len(t, PreviewText(long), 120)
}

func TestPreviewTextKeepsRunesIntact(t *testing.T) {
	// Byte 120 falls mid-rune; truncation must back up to a boundary.
	long := "a" + strings.Repeat("世", 50)
	p := PreviewText(long)
	assert.True(t, utf8.ValidString(p))
	assert.LessOrEqual(t, len(p), 120)
	assert.True(t, strings.HasPrefix(long, p))
}
