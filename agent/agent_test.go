package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symposium-chat/symposium/store"
)

func newResolver() *Resolver {
	return NewResolver(store.NewMemory())
}

func TestResolveSystemAgent(t *testing.T) {
	r := newResolver()

	cfg, err := r.Resolve(context.Background(), "u1", "sage")
	require.NoError(t, err)
	assert.Equal(t, "Sage", cfg.Name)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.False(t, cfg.Custom)
}

func TestResolveSystemAgentShadowsCustom(t *testing.T) {
	// A custom agent cannot be created under a system id, and resolution
	// always checks the system table first.
	r := newResolver()

	err := r.Create(context.Background(), "u1", Config{ID: "scout", Name: "Mine", Model: "gpt-4o"})
	assert.ErrorIs(t, err, ErrSystemAgent)

	cfg, err := r.Resolve(context.Background(), "u1", "scout")
	require.NoError(t, err)
	assert.Equal(t, "Scout", cfg.Name)
}

func TestResolveCustomAgent(t *testing.T) {
	r := newResolver()
	require.NoError(t, r.Create(context.Background(), "u1", Config{ID: "mycoach", Name: "Coach", Model: "gpt-4o-mini"}))

	cfg, err := r.Resolve(context.Background(), "u1", "mycoach")
	require.NoError(t, err)
	assert.Equal(t, "Coach", cfg.Name)
	assert.True(t, cfg.Custom)

	// Scoped per user: another user does not see it.
	_, err = r.Resolve(context.Background(), "u2", "mycoach")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdering(t *testing.T) {
	r := newResolver()
	require.NoError(t, r.Create(context.Background(), "u1", Config{ID: "first", Name: "First", Model: "gpt-4o"}))
	require.NoError(t, r.Create(context.Background(), "u1", Config{ID: "second", Name: "Second", Model: "gpt-4o"}))

	agents, err := r.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, agents, len(SystemAgents())+2)

	assert.Equal(t, "sage", agents[0].ID)
	assert.Equal(t, "first", agents[len(agents)-2].ID)
	assert.Equal(t, "second", agents[len(agents)-1].ID)
}

func TestCreateDuplicate(t *testing.T) {
	r := newResolver()
	cfg := Config{ID: "dup", Name: "Dup", Model: "gpt-4o"}
	require.NoError(t, r.Create(context.Background(), "u1", cfg))

	assert.ErrorIs(t, r.Create(context.Background(), "u1", cfg), ErrExists)

	// Same id under a different user is fine.
	assert.NoError(t, r.Create(context.Background(), "u2", cfg))
}

func TestMutateSystemAgentRejected(t *testing.T) {
	r := newResolver()

	assert.ErrorIs(t, r.Update(context.Background(), "u1", Config{ID: "arbiter", Name: "X", Model: "gpt-4o"}), ErrSystemAgent)
	assert.ErrorIs(t, r.Delete(context.Background(), "u1", "arbiter"), ErrSystemAgent)
}

func TestUpdateAndDeleteCustom(t *testing.T) {
	r := newResolver()
	require.NoError(t, r.Create(context.Background(), "u1", Config{ID: "pet", Name: "Pet", Model: "gpt-4o"}))

	require.NoError(t, r.Update(context.Background(), "u1", Config{ID: "pet", Name: "Pet2", Model: "gemini-2.5-pro"}))
	cfg, err := r.Resolve(context.Background(), "u1", "pet")
	require.NoError(t, err)
	assert.Equal(t, "Pet2", cfg.Name)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)

	require.NoError(t, r.Delete(context.Background(), "u1", "pet"))
	_, err = r.Resolve(context.Background(), "u1", "pet")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, r.Delete(context.Background(), "u1", "pet"), ErrNotFound)
}
