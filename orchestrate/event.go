package orchestrate

// Event is the unit of communication between the orchestration engine and
// the transport adapter. Concrete event types implement the unexported
// isEvent marker, forming a closed set. Each marshals to the exact JSON
// shape the client protocol expects; the type field is fixed by the
// constructor.
type Event interface{ isEvent() }

// Event type discriminators.
const (
	EventUserMessage  = "user_message"
	EventAgentStart   = "agent_start"
	EventText         = "text"
	EventAgentDone    = "agent_done"
	EventTurnComplete = "turn_complete"
	EventError        = "error"
	EventDone         = "done"
)

// UserMessageEvent acknowledges persistence of the triggering user message.
type UserMessageEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
}

func (UserMessageEvent) isEvent() {}

// NewUserMessageEvent builds a user_message event.
func NewUserMessageEvent(messageID string) UserMessageEvent {
	return UserMessageEvent{Type: EventUserMessage, MessageID: messageID}
}

// AgentStartEvent announces that an agent began producing message MessageID.
type AgentStartEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	AgentID   string `json:"agentId"`
}

func (AgentStartEvent) isEvent() {}

// NewAgentStartEvent builds an agent_start event.
func NewAgentStartEvent(messageID, agentID string) AgentStartEvent {
	return AgentStartEvent{Type: EventAgentStart, MessageID: messageID, AgentID: agentID}
}

// TextEvent relays one incremental text chunk for a message.
type TextEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

func (TextEvent) isEvent() {}

// NewTextEvent builds a text event.
func NewTextEvent(messageID, content string) TextEvent {
	return TextEvent{Type: EventText, MessageID: messageID, Content: content}
}

// AgentDoneEvent terminates a successful agent turn with its accounting.
type AgentDoneEvent struct {
	Type        string  `json:"type"`
	MessageID   string  `json:"messageId"`
	Cost        float64 `json:"cost"`
	TotalTokens int     `json:"totalTokens"`
}

func (AgentDoneEvent) isEvent() {}

// NewAgentDoneEvent builds an agent_done event.
func NewAgentDoneEvent(messageID string, cost float64, totalTokens int) AgentDoneEvent {
	return AgentDoneEvent{Type: EventAgentDone, MessageID: messageID, Cost: cost, TotalTokens: totalTokens}
}

// TurnCompleteEvent marks the end of all agent activity for one user turn.
type TurnCompleteEvent struct {
	Type string `json:"type"`
	Turn int    `json:"turn"`
}

func (TurnCompleteEvent) isEvent() {}

// NewTurnCompleteEvent builds a turn_complete event.
func NewTurnCompleteEvent(turn int) TurnCompleteEvent {
	return TurnCompleteEvent{Type: EventTurnComplete, Turn: turn}
}

// ErrorEvent reports an in-band failure. It may appear per-agent mid-stream
// or as the sole event on immediate failure; it never changes the HTTP
// status of an already-open stream.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (ErrorEvent) isEvent() {}

// NewErrorEvent builds an error event.
func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}

// DoneEvent is the terminal event of every stream, carrying the cumulative
// cost of the whole request.
type DoneEvent struct {
	Type      string  `json:"type"`
	TotalCost float64 `json:"totalCost"`
}

func (DoneEvent) isEvent() {}

// NewDoneEvent builds a done event.
func NewDoneEvent(totalCost float64) DoneEvent {
	return DoneEvent{Type: EventDone, TotalCost: totalCost}
}
