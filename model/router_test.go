package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProviderName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", ProviderOpenAI},
		{"gpt-4o-mini", ProviderOpenAI},
		{"o1", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
		{"claude-3-5-sonnet-20241022", ProviderAnthropic},
		{"gemini-2.5-pro", ProviderGemini},
		{"gemini-2.0-flash", ProviderGemini},
		{"some-unknown-model", ProviderGemini},
		{"", ProviderGemini},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveProviderName(tt.model))
		})
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.Provider("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistryDefaultsToGemini(t *testing.T) {
	r := NewRegistry()
	r.Register(ProviderGemini, func() (Provider, error) {
		return NewMockProvider(ProviderGemini), nil
	})

	p, err := r.Provider("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p.Info().Vendor)

	p, err = r.ProviderForModel("whatever-model")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p.Info().Vendor)
}

func TestRegistryCachesInstances(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register(ProviderOpenAI, func() (Provider, error) {
		calls++
		return NewMockProvider(ProviderOpenAI), nil
	})

	first, err := r.Provider(ProviderOpenAI)
	require.NoError(t, err)
	second, err := r.Provider(ProviderOpenAI)
	require.NoError(t, err)

	assert.Same(t, first.(*MockProvider), second.(*MockProvider))
	assert.Equal(t, 1, calls)
}

func TestRegistryDoesNotCacheFailures(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register(ProviderAnthropic, func() (Provider, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("%w: anthropic", ErrMissingCredentials)
		}
		return NewMockProvider(ProviderAnthropic), nil
	})

	_, err := r.Provider(ProviderAnthropic)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredentials))

	p, err := r.Provider(ProviderAnthropic)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p.Info().Vendor)
	assert.Equal(t, 2, calls)
}
