// Package openai provides an implementation of model.Provider using the
// OpenAI Chat Completions API (streaming). It adapts Symposium's normalized
// Request into the SDK's message format and relays the vendor token stream
// as tagged chunks.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/symposium-chat/symposium/model"
)

// Options configure the OpenAI provider. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	APIKey       string
	DefaultModel string
	Temperature  float64
}

// Provider wraps the OpenAI Chat Completions API behind the generic
// model.Provider interface.
type Provider struct {
	client *openai.Client
	opts   Options
}

// NewProvider creates an OpenAI provider using the official client.
// Construction fails when no API key is supplied.
func NewProvider(optFns ...func(o *Options)) (*Provider, error) {
	opts := Options{
		DefaultModel: openai.ChatModelGPT4oMini,
		Temperature:  0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", model.ErrMissingCredentials)
	}
	client := openai.NewClient(option.WithAPIKey(opts.APIKey))
	return &Provider{client: &client, opts: opts}, nil
}

// NewProviderFromClient creates an OpenAI provider from an existing client.
func NewProviderFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		DefaultModel: openai.ChatModelGPT4oMini,
		Temperature:  0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// GenerateStream implements model.Provider. The Chat Completions API reports
// usage on the final chunk, so the last value seen wins.
func (p *Provider) GenerateStream(ctx context.Context, req model.Request) <-chan model.StreamChunk {
	out := make(chan model.StreamChunk, 32)
	go func() {
		defer close(out)

		messages, err := buildMessages(req)
		if err != nil {
			out <- model.ErrorChunk(err)
			return
		}

		modelID := req.Model
		if modelID == "" {
			modelID = p.opts.DefaultModel
		}
		params := openai.ChatCompletionNewParams{
			Messages:    messages,
			Model:       modelID,
			Temperature: openai.Float(p.opts.Temperature),
			StreamOptions: openai.ChatCompletionStreamOptionsParam{
				IncludeUsage: openai.Bool(true),
			},
		}

		stream := p.client.Chat.Completions.NewStreaming(ctx, params)

		var totalTokens int
		for stream.Next() {
			ck := stream.Current()
			if ck.Usage.TotalTokens > 0 {
				totalTokens = int(ck.Usage.TotalTokens)
			}
			for _, choice := range ck.Choices {
				if choice.Delta.Content != "" {
					out <- model.TextChunk(choice.Delta.Content)
				}
			}
		}
		if err := stream.Err(); err != nil {
			out <- streamErrorChunk(err)
			return
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

// buildMessages converts the normalized request into OpenAI chat messages.
// Attachments precede the prompt: text becomes text parts, images become
// base64 data-URL image parts. Document attachments have no Chat Completions
// representation and are rejected rather than dropped.
func buildMessages(req model.Request) ([]openai.ChatCompletionMessageParamUnion, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemInstruction != "" {
		messages = append(messages, openai.SystemMessage(req.SystemInstruction))
	}

	if len(req.Attachments) == 0 {
		messages = append(messages, openai.UserMessage(model.PromptText(req)))
		return messages, nil
	}

	var parts []openai.ChatCompletionContentPartUnionParam
	for _, att := range req.Attachments {
		switch att.Kind {
		case model.AttachmentText:
			if att.Text != "" {
				parts = append(parts, openai.TextContentPart(att.Text))
			}
		case model.AttachmentImage:
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: fmt.Sprintf("data:%s;base64,%s", att.MimeType, att.Data),
			}))
		default:
			return nil, fmt.Errorf("openai: unsupported attachment kind %q for %q", att.Kind, att.Name)
		}
	}
	parts = append(parts, openai.TextContentPart(model.PromptText(req)))
	messages = append(messages, openai.UserMessage(parts))
	return messages, nil
}

// Info returns metadata describing this provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{Vendor: model.ProviderOpenAI}
}
