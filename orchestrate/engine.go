// Package orchestrate implements the multi-agent response pipeline: given a
// conversation's mode and a new user message, it decides which agents speak,
// in what order, with what context, and emits a unified sequence of
// lifecycle events while persisting messages and usage records.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/symposium-chat/symposium/agent"
	"github.com/symposium-chat/symposium/logging"
	"github.com/symposium-chat/symposium/metrics"
	"github.com/symposium-chat/symposium/model"
	"github.com/symposium-chat/symposium/store"
)

// EmitFunc delivers one event to the transport adapter. A non-nil return
// means the client is gone; the engine stops emitting and winds down.
// Delivery is synchronous, so a stalled consumer backpressures the engine at
// its next emit.
type EmitFunc func(Event) error

// agentTurnLogger is satisfied by loggers that record structured per-turn
// outcomes (logging.ChatLogger does). Plain Loggers fall back to formatted
// messages.
type agentTurnLogger interface {
	LogAgentTurn(agentID, messageID string, tokens int, cost float64, dur time.Duration, success bool, err error)
}

// UsageRecorder appends an accounting record for one completed agent turn.
// The billing service implements this to couple credit deduction to usage.
type UsageRecorder interface {
	Record(ctx context.Context, l *store.UsageLog) error
}

// Options holds optional engine dependencies.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Engine drives orchestrated turns. It holds no per-request state; every
// request gets its own call stack, so Engine is safe for concurrent use.
type Engine struct {
	resolver  *agent.Resolver
	providers model.Source
	messages  store.MessageStore
	usage     UsageRecorder
	logger    logging.Logger
	metrics   *metrics.Metrics
}

// NewEngine constructs an Engine with optional overrides.
func NewEngine(resolver *agent.Resolver, providers model.Source, messages store.MessageStore, usage UsageRecorder, optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		resolver:  resolver,
		providers: providers,
		messages:  messages,
		usage:     usage,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// TurnRequest describes one orchestrated turn: the conversation it belongs
// to and the new user input.
type TurnRequest struct {
	Conversation *store.Conversation
	UserID       string
	Content      string
	Attachments  []model.Attachment
}

// agentResult is the per-agent outcome collected by the turn. The overall
// continuation decision is computed from mode plus results, never by
// propagating errors across agent boundaries.
type agentResult struct {
	agentID    string
	messageID  string
	content    string
	tokens     int
	cost       float64
	ok         bool
	clientGone bool
}

// Run executes one orchestrated turn, emitting lifecycle events through
// emit. Failures local to one agent are reported in-band; the stream always
// terminates with exactly one done event. The returned error is reserved for
// emit-level transport failures.
func (e *Engine) Run(ctx context.Context, req TurnRequest, emit EmitFunc) error {
	conv := req.Conversation
	e.metrics.TurnStarted(string(conv.Mode))

	history, userTurns, err := e.loadHistory(ctx, conv.ID)
	if err != nil {
		e.logger.Error("failed to load history: %v", err)
		_ = emit(NewErrorEvent("failed to load conversation history"))
		return emit(NewDoneEvent(0))
	}

	userMsg := &store.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderType:     store.SenderUser,
		SenderID:       req.UserID,
		Content:        req.Content,
		Attachments:    req.Attachments,
	}
	// Delivery is decoupled from durability: a failed write is logged but the
	// stream proceeds so the client still gets its response.
	if err := e.messages.CreateMessage(ctx, userMsg); err != nil {
		e.logger.Error("failed to persist user message: %v", err)
	}
	if err := emit(NewUserMessageEvent(userMsg.ID)); err != nil {
		return err
	}

	participants, err := participantsFor(conv)
	if err != nil {
		_ = emit(NewErrorEvent(err.Error()))
		return emit(NewDoneEvent(0))
	}

	var results []agentResult
	if conv.Mode == store.ModeParallel {
		results = e.runParallel(ctx, conv, req, history, participants, emit)
	} else {
		results = e.runSequential(ctx, conv, req, history, participants, emit)
	}

	var totalCost float64
	clientGone := false
	for _, r := range results {
		totalCost += r.cost
		clientGone = clientGone || r.clientGone
	}
	if clientGone {
		return nil
	}
	if err := emit(NewTurnCompleteEvent(userTurns + 1)); err != nil {
		return err
	}
	return emit(NewDoneEvent(totalCost))
}

// participantsFor derives the ordered agent ids for a turn from the
// conversation's mode and agent bindings.
func participantsFor(conv *store.Conversation) ([]string, error) {
	b := conv.Agents
	if err := b.ValidateFor(conv.Mode); err != nil {
		return nil, err
	}
	switch conv.Mode {
	case store.ModeCollaborative, store.ModeParallel:
		return []string{b.System1ID, b.System2ID}, nil
	case store.ModeDebate:
		ids := []string{b.ProponentID, b.OpponentID}
		if b.ModeratorID != "" {
			ids = append(ids, b.ModeratorID)
		}
		return ids, nil
	case store.ModeExpertCouncil:
		return append([]string(nil), b.CouncilIDs...), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", conv.Mode)
	}
}

// runSequential drives agents one after another. Chaining modes append each
// agent's output to the running history so later agents can react to
// earlier ones. In collaborative mode both participants are required, so the
// first failure aborts the remainder of the turn.
func (e *Engine) runSequential(ctx context.Context, conv *store.Conversation, req TurnRequest, history []model.HistoryEntry, participants []string, emit EmitFunc) []agentResult {
	abortOnFailure := conv.Mode == store.ModeCollaborative
	chain := append([]model.HistoryEntry(nil), history...)

	results := make([]agentResult, 0, len(participants))
	for _, agentID := range participants {
		res := e.runAgentTurn(ctx, conv, req, chain, agentID, emit)
		results = append(results, res)
		if res.clientGone {
			break
		}
		if !res.ok {
			if abortOnFailure {
				break
			}
			continue
		}
		chain = append(chain, model.HistoryEntry{Role: model.RoleAssistant, Content: res.content})
	}
	return results
}

// runParallel dispatches all agents concurrently against the same original
// prompt. No agent sees a sibling's output; cross-agent interleaving is
// unspecified, but each agent's own emission order is preserved because its
// goroutine emits sequentially through the shared sink. Sibling failures
// never abort the group.
func (e *Engine) runParallel(ctx context.Context, conv *store.Conversation, req TurnRequest, history []model.HistoryEntry, participants []string, emit EmitFunc) []agentResult {
	var mu sync.Mutex
	safeEmit := func(ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		return emit(ev)
	}

	results := make([]agentResult, len(participants))
	g := new(errgroup.Group)
	for i, agentID := range participants {
		g.Go(func() error {
			results[i] = e.runAgentTurn(ctx, conv, req, history, agentID, safeEmit)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runAgentTurn resolves one agent, drives its provider stream, relays text
// chunks and persists the outcome. If the client disappears mid-stream the
// provider is still drained so the partial message can be durably recorded.
func (e *Engine) runAgentTurn(ctx context.Context, conv *store.Conversation, req TurnRequest, history []model.HistoryEntry, agentID string, emit EmitFunc) agentResult {
	res := agentResult{agentID: agentID}
	start := time.Now()

	cfg, err := e.resolver.Resolve(ctx, conv.UserID, agentID)
	if err != nil {
		res.clientGone = emit(NewErrorEvent(fmt.Sprintf("unknown agent: %s", agentID))) != nil
		return res
	}
	provider, err := e.providers.ProviderForModel(cfg.Model)
	if err != nil {
		e.logger.Error("provider unavailable for model %s: %v", cfg.Model, err)
		res.clientGone = emit(NewErrorEvent(fmt.Sprintf("provider unavailable for agent %s", agentID))) != nil
		return res
	}

	res.messageID = uuid.NewString()
	if emit(NewAgentStartEvent(res.messageID, agentID)) != nil {
		res.clientGone = true
		return res
	}

	mreq := model.Request{
		Model:             cfg.Model,
		Prompt:            req.Content,
		SystemInstruction: cfg.Instruction,
		History:           history,
		Attachments:       req.Attachments,
		ThinkingBudget:    conv.Settings.ThinkingBudget,
	}

	var content strings.Builder
	var tokens int
	var failMsg string
	failed := false
	clientGone := false

	for ck := range provider.GenerateStream(ctx, mreq) {
		switch ck.Type {
		case model.ChunkTypeText:
			content.WriteString(ck.Content)
			if !clientGone {
				if emit(NewTextEvent(res.messageID, ck.Content)) != nil {
					clientGone = true
				} else {
					e.metrics.ChunkRelayed()
				}
			}
		case model.ChunkTypeDone:
			tokens = ck.TotalTokens
		case model.ChunkTypeError:
			failed = true
			failMsg = ck.Error
		}
	}
	res.clientGone = clientGone

	if failed {
		e.metrics.ProviderError(provider.Info().Vendor)
		e.metrics.AgentTurn(cfg.Model, 0, false)
		e.logAgentTurn(agentID, res.messageID, 0, 0, time.Since(start), false, errors.New(failMsg))
		if !clientGone {
			res.clientGone = emit(NewErrorEvent(failMsg)) != nil
		}
		// A generation interrupted by client disconnect still gets its partial
		// content recorded; a provider failure does not.
		if clientGone && content.Len() > 0 {
			e.persistAgentMessage(ctx, conv, res.messageID, agentID, content.String(), 0)
		}
		return res
	}

	res.ok = true
	res.content = content.String()
	res.tokens = tokens
	res.cost = Cost(cfg.Model, tokens)

	if !clientGone {
		if emit(NewAgentDoneEvent(res.messageID, res.cost, tokens)) != nil {
			res.clientGone = true
		}
	}

	e.persistAgentMessage(ctx, conv, res.messageID, agentID, res.content, res.cost)
	if err := e.usage.Record(ctx, &store.UsageLog{
		ID:             uuid.NewString(),
		UserID:         conv.UserID,
		ConversationID: conv.ID,
		MessageID:      res.messageID,
		AgentID:        agentID,
		Tokens:         tokens,
		Cost:           res.cost,
		Model:          cfg.Model,
	}); err != nil {
		e.logger.Error("failed to record usage for message %s: %v", res.messageID, err)
	}

	e.metrics.AgentTurn(cfg.Model, tokens, true)
	e.logAgentTurn(agentID, res.messageID, tokens, res.cost, time.Since(start), true, nil)
	return res
}

func (e *Engine) logAgentTurn(agentID, messageID string, tokens int, cost float64, dur time.Duration, success bool, failure error) {
	if tl, ok := e.logger.(agentTurnLogger); ok {
		tl.LogAgentTurn(agentID, messageID, tokens, cost, dur, success, failure)
		return
	}
	if success {
		e.logger.Debug("agent %s finished message %s in %s (%d tokens)", agentID, messageID, dur, tokens)
		return
	}
	e.logger.Error("agent %s stream failed for message %s: %v", agentID, messageID, failure)
}

func (e *Engine) persistAgentMessage(ctx context.Context, conv *store.Conversation, messageID, agentID, content string, cost float64) {
	msg := &store.Message{
		ID:             messageID,
		ConversationID: conv.ID,
		SenderType:     store.SenderAgent,
		SenderID:       agentID,
		Content:        content,
		Cost:           cost,
	}
	if err := e.messages.CreateMessage(ctx, msg); err != nil {
		e.logger.Error("failed to persist agent message %s: %v", messageID, err)
	}
}

// loadHistory maps the persisted transcript to provider history entries and
// counts prior user turns.
func (e *Engine) loadHistory(ctx context.Context, conversationID string) ([]model.HistoryEntry, int, error) {
	msgs, err := e.messages.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}
	history := make([]model.HistoryEntry, 0, len(msgs))
	userTurns := 0
	for _, m := range msgs {
		role := model.RoleAssistant
		if m.SenderType == store.SenderUser {
			role = model.RoleUser
			userTurns++
		}
		history = append(history, model.HistoryEntry{Role: role, Content: m.Content})
	}
	return history, userTurns, nil
}
