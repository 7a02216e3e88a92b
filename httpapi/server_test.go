package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symposium-chat/symposium/agent"
	"github.com/symposium-chat/symposium/billing"
	"github.com/symposium-chat/symposium/model"
	"github.com/symposium-chat/symposium/orchestrate"
	"github.com/symposium-chat/symposium/store"
)

const testSecret = "test-secret"

type mockSource struct{ p model.Provider }

func (m mockSource) ProviderForModel(string) (model.Provider, error) { return m.p, nil }

type env struct {
	server *Server
	store  *store.Memory
	token  string
	userID string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := store.NewMemory()
	resolver := agent.NewResolver(st)
	bill := billing.NewService(st, st)
	engine := orchestrate.NewEngine(resolver, mockSource{model.NewMockProvider("mock")}, st, bill)
	srv := NewServer(st, engine, resolver, bill, testSecret, func(o *Options) {
		o.ChatRPS = 1000
		o.ChatBurst = 1000
	})

	e := &env{server: srv, store: st}
	e.userID, e.token = e.register(t, "Ada", "ada@example.com", "password123")
	return e
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *env) register(t *testing.T, name, email, password string) (userID, token string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.User.ID, resp.Token
}

func (e *env) createConversation(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/conversations", e.token, map[string]any{
		"title": "test",
		"mode":  "collaborative",
		"agents": map[string]any{
			"system1Id": "sage",
			"system2Id": "scout",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var conv store.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	return conv.ID
}

func parseSSE(t *testing.T, body string) []map[string]any {
	t.Helper()
	var events []map[string]any
	for _, frame := range strings.Split(body, "\n\n") {
		frame = strings.TrimSpace(frame)
		if frame == "" {
			continue
		}
		require.True(t, strings.HasPrefix(frame, "data: "), "bad frame: %q", frame)
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/me", e.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBannedUserRejected(t *testing.T) {
	e := newEnv(t)
	u, err := e.store.UserByID(context.Background(), e.userID)
	require.NoError(t, err)
	u.Banned = true
	require.NoError(t, e.store.UpdateUser(context.Background(), u))

	w := e.do(t, http.MethodGet, "/api/v1/me", e.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConversationValidation(t *testing.T) {
	e := newEnv(t)

	// Missing system2Id for a two-agent mode.
	w := e.do(t, http.MethodPost, "/api/v1/conversations", e.token, map[string]any{
		"mode":   "collaborative",
		"agents": map[string]any{"system1Id": "sage"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/conversations", e.token, map[string]any{
		"mode":   "debate",
		"agents": map[string]any{"proponentId": "advocate", "opponentId": "skeptic"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestConversationOwnership(t *testing.T) {
	e := newEnv(t)
	convID := e.createConversation(t)

	_, otherToken := e.register(t, "Eve", "eve@example.com", "password123")

	w := e.do(t, http.MethodGet, "/api/v1/conversations/"+convID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/conversations/"+convID, e.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatValidation(t *testing.T) {
	e := newEnv(t)
	convID := e.createConversation(t)

	w := e.do(t, http.MethodPost, "/api/v1/conversations/"+convID+"/messages", e.token, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/conversations/unknown/messages", e.token, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatInsufficientCredits(t *testing.T) {
	e := newEnv(t)
	convID := e.createConversation(t)

	require.NoError(t, e.store.AddCredits(context.Background(), e.userID, -billing.FreeSignupCredits))

	w := e.do(t, http.MethodPost, "/api/v1/conversations/"+convID+"/messages", e.token, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestChatStreamsSSE(t *testing.T) {
	e := newEnv(t)
	convID := e.createConversation(t)

	w := e.do(t, http.MethodPost, "/api/v1/conversations/"+convID+"/messages", e.token, map[string]string{"content": "hello agents"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	events := parseSSE(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "user_message", events[0]["type"])
	assert.Equal(t, "done", events[len(events)-1]["type"])

	var starts int
	for _, ev := range events {
		if ev["type"] == "agent_start" {
			starts++
		}
	}
	assert.Equal(t, 2, starts)

	// The transcript now holds the user message and both agent replies.
	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%s/messages", convID), e.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []store.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgs))
	assert.Len(t, msgs, 3)
}

func TestAgentEndpoints(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/agents", e.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var agents []agent.Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agents))
	assert.Len(t, agents, len(agent.SystemAgents()))

	w = e.do(t, http.MethodPost, "/api/v1/agents", e.token, map[string]string{
		"id": "mycoach", "name": "Coach", "model": "gpt-4o-mini",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodDelete, "/api/v1/agents/sage", e.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodDelete, "/api/v1/agents/mycoach", e.token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminGate(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/admin/users", e.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminID, adminToken := e.register(t, "Root", "root@example.com", "password123")
	u, err := e.store.UserByID(context.Background(), adminID)
	require.NoError(t, err)
	u.Admin = true
	require.NoError(t, e.store.UpdateUser(context.Background(), u))

	w = e.do(t, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/admin/users/"+e.userID+"/ban", adminToken, map[string]bool{"banned": true})
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/me", e.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBillingEndpoints(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/billing/balance", e.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bal struct {
		Plan    string  `json:"plan"`
		Credits float64 `json:"credits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bal))
	assert.Equal(t, billing.PlanFree, bal.Plan)
	assert.Equal(t, billing.FreeSignupCredits, bal.Credits)

	w = e.do(t, http.MethodPost, "/api/v1/billing/purchase", e.token, map[string]float64{"amount": 20})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bal))
	assert.InDelta(t, billing.FreeSignupCredits+20, bal.Credits, 1e-9)

	w = e.do(t, http.MethodPost, "/api/v1/billing/purchase", e.token, map[string]float64{"amount": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/billing/upgrade", e.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bal))
	assert.Equal(t, billing.PlanPro, bal.Plan)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
