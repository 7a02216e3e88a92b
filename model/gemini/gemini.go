// Package gemini provides an implementation of model.Provider using the
// Google GenAI API. It is the baseline provider: unrecognized model
// identifiers route here. It adapts Symposium's normalized Request into
// genai content (attachments ahead of the prompt text) and relays the token
// stream as tagged chunks.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"

	"github.com/symposium-chat/symposium/model"
)

// Options configure the Gemini provider.
type Options struct {
	APIKey       string
	DefaultModel string
}

// Provider wraps the GenAI streaming API behind the generic model.Provider
// interface.
type Provider struct {
	client *genai.Client
	opts   Options
}

// NewProvider creates a Gemini provider. Construction fails when no API key
// is supplied.
func NewProvider(ctx context.Context, optFns ...func(o *Options)) (*Provider, error) {
	opts := Options{DefaultModel: "gemini-2.0-flash"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", model.ErrMissingCredentials)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: opts.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	return &Provider{client: client, opts: opts}, nil
}

// GenerateStream implements model.Provider. Attachments precede the textual
// prompt in the content parts; history is embedded as a textual preamble.
// The last usage report seen wins for the done chunk's token count.
func (p *Provider) GenerateStream(ctx context.Context, req model.Request) <-chan model.StreamChunk {
	out := make(chan model.StreamChunk, 32)
	go func() {
		defer close(out)

		parts, err := buildParts(req)
		if err != nil {
			out <- model.ErrorChunk(err)
			return
		}
		contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

		cfg := &genai.GenerateContentConfig{}
		if req.SystemInstruction != "" {
			cfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{genai.NewPartFromText(req.SystemInstruction)},
			}
		}
		if req.ThinkingBudget > 0 {
			cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(req.ThinkingBudget)}
		}

		modelID := req.Model
		if modelID == "" {
			modelID = p.opts.DefaultModel
		}

		stream := p.client.Models.GenerateContentStream(ctx, modelID, contents, cfg)

		var totalTokens int
		for resp, err := range stream {
			if err != nil {
				out <- streamErrorChunk(err)
				return
			}
			if resp == nil {
				continue
			}
			if um := resp.UsageMetadata; um != nil && um.TotalTokenCount > 0 {
				totalTokens = int(um.TotalTokenCount)
			}
			if text := resp.Text(); text != "" {
				out <- model.TextChunk(text)
			}
		}
		out <- model.DoneChunk(totalTokens)
	}()
	return out
}

// streamErrorChunk converts a vendor stream failure into the terminal error
// chunk. The vendor message passes through verbatim so clients see exactly
// what the provider reported.
func streamErrorChunk(err error) model.StreamChunk {
	return model.ErrorChunk(err)
}

// buildParts converts attachments then the effective prompt into genai parts.
func buildParts(req model.Request) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(req.Attachments)+1)
	for _, att := range req.Attachments {
		if att.Kind == model.AttachmentText {
			parts = append(parts, genai.NewPartFromText(att.Text))
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(att.Data)
		if err != nil {
			return nil, fmt.Errorf("gemini: invalid attachment %q: %w", att.Name, err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: att.MimeType, Data: raw},
		})
	}
	parts = append(parts, genai.NewPartFromText(model.PromptText(req)))
	return parts, nil
}

// Info returns metadata describing this provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{Vendor: model.ProviderGemini}
}
