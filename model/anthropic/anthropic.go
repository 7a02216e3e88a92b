// Package anthropic provides an implementation of model.Provider using the
// Anthropic Messages API (streaming).
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/symposium-chat/symposium/model"
)

// Options configure the Anthropic provider (model id, max tokens,
// temperature, API key).
type Options struct {
	APIKey       string
	DefaultModel anthropic.Model
	MaxTokens    int64
	Temperature  float64
}

// Provider wraps the Anthropic Messages API behind the generic
// model.Provider interface.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

// NewProvider creates an Anthropic provider using the official client.
// Construction fails when no API key is supplied.
func NewProvider(optFns ...func(o *Options)) (*Provider, error) {
	opts := Options{
		DefaultModel: anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens:    4096,
		Temperature:  0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", model.ErrMissingCredentials)
	}
	client := anthropic.NewClient(option.WithAPIKey(opts.APIKey))
	return &Provider{client: &client, opts: opts}, nil
}

// NewProviderFromClient creates an Anthropic provider from an existing client.
func NewProviderFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		DefaultModel: anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens:    4096,
		Temperature:  0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// GenerateStream implements model.Provider. Token usage is accumulated from
// stream events; the done chunk carries input plus output tokens.
func (p *Provider) GenerateStream(ctx context.Context, req model.Request) <-chan model.StreamChunk {
	out := make(chan model.StreamChunk, 32)
	go func() {
		defer close(out)

		blocks, err := buildBlocks(req)
		if err != nil {
			out <- model.ErrorChunk(err)
			return
		}

		modelID := p.opts.DefaultModel
		if req.Model != "" {
			modelID = anthropic.Model(req.Model)
		}
		params := anthropic.MessageNewParams{
			Model:       modelID,
			MaxTokens:   p.opts.MaxTokens,
			Temperature: anthropic.Float(p.opts.Temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(blocks...),
			},
		}
		if req.SystemInstruction != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.SystemInstruction}}
		}

		stream := p.client.Messages.NewStreaming(ctx, params)

		acc := anthropic.Message{}
		for stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				out <- streamErrorChunk(err)
				return
			}
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch delta := ev.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if delta.Text != "" {
						out <- model.TextChunk(delta.Text)
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			out <- streamErrorChunk(err)
			return
		}
		out <- model.DoneChunk(int(acc.Usage.InputTokens + acc.Usage.OutputTokens))
	}()
	return out
}

// streamErrorChunk converts a vendor stream failure into the terminal error
// chunk. The vendor message passes through verbatim so clients see exactly
// what the provider reported.
func streamErrorChunk(err error) model.StreamChunk {
	return model.ErrorChunk(err)
}

// buildBlocks converts attachments then the effective prompt into content
// blocks. Images become base64 image blocks, PDF documents become document
// blocks; anything else unrepresentable is rejected rather than dropped.
func buildBlocks(req model.Request) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Attachments)+1)
	for _, att := range req.Attachments {
		switch att.Kind {
		case model.AttachmentText:
			if att.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(att.Text))
			}
		case model.AttachmentImage:
			blocks = append(blocks, anthropic.NewImageBlockBase64(att.MimeType, att.Data))
		case model.AttachmentDocument:
			if att.MimeType != "application/pdf" {
				return nil, fmt.Errorf("anthropic: unsupported document type %q for %q", att.MimeType, att.Name)
			}
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: att.Data}))
		default:
			return nil, fmt.Errorf("anthropic: unsupported attachment kind %q for %q", att.Kind, att.Name)
		}
	}
	blocks = append(blocks, anthropic.NewTextBlock(model.PromptText(req)))
	return blocks, nil
}

// Info returns metadata describing this provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{Vendor: model.ProviderAnthropic}
}
