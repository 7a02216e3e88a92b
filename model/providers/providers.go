// Package providers wires the vendor adapters into a model.Registry. It
// exists so the model package itself never imports its own subpackages.
package providers

import (
	"context"

	"github.com/symposium-chat/symposium/model"
	"github.com/symposium-chat/symposium/model/anthropic"
	"github.com/symposium-chat/symposium/model/gemini"
	"github.com/symposium-chat/symposium/model/openai"
)

// NewRegistry builds a registry with factories for all known providers.
// Factories validate credentials lazily, so a missing API key only fails
// calls routed to that provider.
func NewRegistry(ctx context.Context, geminiKey, openaiKey, anthropicKey string) *model.Registry {
	r := model.NewRegistry()
	r.Register(model.ProviderGemini, func() (model.Provider, error) {
		return gemini.NewProvider(ctx, func(o *gemini.Options) { o.APIKey = geminiKey })
	})
	r.Register(model.ProviderOpenAI, func() (model.Provider, error) {
		return openai.NewProvider(func(o *openai.Options) { o.APIKey = openaiKey })
	})
	r.Register(model.ProviderAnthropic, func() (model.Provider, error) {
		return anthropic.NewProvider(func(o *anthropic.Options) { o.APIKey = anthropicKey })
	})
	return r
}
