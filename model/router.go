package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Known provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Sentinel errors surfaced by the Registry.
var (
	// ErrUnknownProvider indicates a provider name with no registered factory.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingCredentials indicates a provider whose API key is absent from
	// the environment. Factories wrap this so callers can detect it with
	// errors.Is.
	ErrMissingCredentials = errors.New("missing provider credentials")
)

// openAIShortName matches reasoning-model identifiers like "o1", "o3-mini".
var openAIShortName = regexp.MustCompile(`^o[0-9]`)

// ResolveProviderName maps a model identifier to the provider responsible for
// it. Pure string-pattern routing: gpt/o<digit> families go to OpenAI, claude
// models to Anthropic, everything else (including unrecognized identifiers)
// defaults to Gemini.
func ResolveProviderName(modelID string) string {
	m := strings.ToLower(modelID)
	if strings.Contains(m, "gpt") || openAIShortName.MatchString(m) {
		return ProviderOpenAI
	}
	if strings.Contains(m, "claude") {
		return ProviderAnthropic
	}
	return ProviderGemini
}

// Factory constructs a Provider, typically validating credentials in the
// process.
type Factory func() (Provider, error)

// Source resolves the provider instance responsible for a model identifier.
// Satisfied by *Registry; tests supply their own implementations.
type Source interface {
	ProviderForModel(modelID string) (Provider, error)
}

// Registry holds provider factories and caches constructed instances. Safe
// for concurrent use.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	cache     map[string]Provider
	defName   string
}

// NewRegistry creates an empty registry defaulting to the Gemini provider.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		cache:     make(map[string]Provider),
		defName:   ProviderGemini,
	}
}

// Register installs a factory under the given provider name, replacing any
// previous registration. The cached instance, if any, is discarded.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
	delete(r.cache, name)
}

// Provider returns the (possibly cached) provider instance for an explicit or
// defaulted name. An empty name selects the default provider. Construction
// errors (e.g. missing credentials) are not cached so a later call can
// succeed once the environment is fixed.
func (r *Registry) Provider(name string) (Provider, error) {
	if name == "" {
		name = r.defName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cache[name]; ok {
		return p, nil
	}
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	p, err := f()
	if err != nil {
		return nil, err
	}
	r.cache[name] = p
	return p, nil
}

// ProviderForModel resolves a model identifier to its provider instance.
func (r *Registry) ProviderForModel(modelID string) (Provider, error) {
	return r.Provider(ResolveProviderName(modelID))
}
