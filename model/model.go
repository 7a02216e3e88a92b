// Package model defines the provider abstraction used by the orchestration
// engine. A Provider normalizes calls to a generative-model backend into a
// uniform streaming interface of tagged chunks, hiding vendor-specific
// request/response shapes. Vendor adapters live in subpackages (gemini,
// openai, anthropic); the rest of the system never branches on vendor
// identity.
package model

import (
	"context"
	"fmt"
	"strings"
)

// MaxHistoryEntries caps the conversation history sent to a provider. Older
// entries are dropped before the request is built.
const MaxHistoryEntries = 8

// Roles used in conversation history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Attachment kinds.
const (
	AttachmentImage    = "image"
	AttachmentDocument = "document"
	AttachmentText     = "text"
)

// ChunkType discriminates StreamChunk variants.
type ChunkType string

const (
	// ChunkTypeText carries an incremental unit of generated text.
	ChunkTypeText ChunkType = "text"
	// ChunkTypeDone terminates a successful stream with the cumulative token count.
	ChunkTypeDone ChunkType = "done"
	// ChunkTypeError terminates a failed stream. No further chunks follow.
	ChunkTypeError ChunkType = "error"
)

// StreamChunk is one element of a provider's streamed output. Exactly one
// terminal chunk (done or error) ends every stream; no chunk follows it.
type StreamChunk struct {
	Type        ChunkType `json:"type"`
	Content     string    `json:"content,omitempty"`
	TotalTokens int       `json:"totalTokens,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// TextChunk builds a text chunk.
func TextChunk(content string) StreamChunk {
	return StreamChunk{Type: ChunkTypeText, Content: content}
}

// DoneChunk builds the terminal chunk of a successful stream.
func DoneChunk(totalTokens int) StreamChunk {
	return StreamChunk{Type: ChunkTypeDone, TotalTokens: totalTokens}
}

// ErrorChunk builds the terminal chunk of a failed stream. A nil error is
// normalized to the literal message "Unknown error".
func ErrorChunk(err error) StreamChunk {
	msg := "Unknown error"
	if err != nil {
		msg = err.Error()
	}
	return StreamChunk{Type: ChunkTypeError, Error: msg}
}

// HistoryEntry is one prior turn of the conversation transcript.
type HistoryEntry struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// Attachment carries user-supplied binary or textual content that accompanies
// a prompt. Binary data is inlined base64; text attachments carry raw text.
type Attachment struct {
	Kind     string `json:"kind"` // image, document or text
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64 for image/document
	Text     string `json:"text,omitempty"` // raw content for text attachments
}

// Request captures the normalized model input produced by the orchestration
// engine.
type Request struct {
	Model             string
	Prompt            string
	SystemInstruction string
	History           []HistoryEntry
	Attachments       []Attachment
	// ThinkingBudget is a numeric hint enabling extended deliberation for
	// models that support it. Zero disables it.
	ThinkingBudget int32
}

// Info contains metadata about a provider implementation.
type Info struct {
	Vendor string `json:"vendor"` // "gemini", "openai", "anthropic", ...
}

// Provider is the minimal interface required by the orchestration engine to
// drive generation. The returned channel is closed after the terminal chunk.
type Provider interface {
	GenerateStream(ctx context.Context, req Request) <-chan StreamChunk

	// Info returns information about the provider implementation.
	Info() Info
}

// BoundHistory returns at most the last MaxHistoryEntries entries of h.
func BoundHistory(h []HistoryEntry) []HistoryEntry {
	if len(h) <= MaxHistoryEntries {
		return h
	}
	return h[len(h)-MaxHistoryEntries:]
}

// PromptText renders the effective textual prompt for a request. When history
// is present it is embedded as a preamble ahead of the current task so
// providers without native multi-turn support still see prior context.
func PromptText(req Request) string {
	h := BoundHistory(req.History)
	if len(h) == 0 {
		return req.Prompt
	}
	var b strings.Builder
	b.WriteString("PREVIOUS CONVERSATION:\n")
	for _, e := range h {
		label := "User"
		if e.Role == RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, e.Content)
	}
	b.WriteString("\nCURRENT TASK: ")
	b.WriteString(req.Prompt)
	return b.String()
}

// MockProvider is a lightweight in-memory Provider useful for tests.
type MockProvider struct {
	info    Info
	scripts map[string][]StreamChunk
}

// NewMockProvider constructs a MockProvider reporting the given vendor.
func NewMockProvider(vendor string) *MockProvider {
	return &MockProvider{
		info:    Info{Vendor: vendor},
		scripts: make(map[string][]StreamChunk),
	}
}

// AddScript registers a deterministic chunk sequence for an input prompt.
// The terminal chunk must be included by the caller.
func (m *MockProvider) AddScript(prompt string, chunks ...StreamChunk) {
	m.scripts[prompt] = chunks
}

// GenerateStream implements Provider; emits the scripted sequence for the
// request prompt, or a canned response followed by a done chunk.
func (m *MockProvider) GenerateStream(ctx context.Context, req Request) <-chan StreamChunk {
	out := make(chan StreamChunk, 16)
	go func() {
		defer close(out)
		chunks, ok := m.scripts[req.Prompt]
		if !ok {
			text := fmt.Sprintf("Mock response to: %s", req.Prompt)
			chunks = []StreamChunk{TextChunk(text), DoneChunk(len(text) / 4)}
		}
		for _, ck := range chunks {
			select {
			case <-ctx.Done():
				out <- ErrorChunk(ctx.Err())
				return
			case out <- ck:
			}
			if ck.Type == ChunkTypeError || ck.Type == ChunkTypeDone {
				return
			}
		}
	}()
	return out
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
