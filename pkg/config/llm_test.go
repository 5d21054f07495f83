package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMProviderRegistry_Get(t *testing.T) {
	providers := map[string]*LLMProviderConfig{
		"default": {Endpoint: "https://llm.example", Model: "gpt", MaxTokens: 4096},
	}
	reg := NewLLMProviderRegistry(providers)

	got, err := reg.Get("default")
	require.NoError(t, err)
	assert.Equal(t, "https://llm.example", got.Endpoint)

	_, err = reg.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLLMProviderNotFound))
}

func TestLLMProviderRegistry_Len(t *testing.T) {
	reg := NewLLMProviderRegistry(map[string]*LLMProviderConfig{
		"a": {Endpoint: "x", Model: "m", MaxTokens: 1000},
		"b": {Endpoint: "y", Model: "n", MaxTokens: 1000},
	})
	assert.Equal(t, 2, reg.Len())
}

func TestLLMProviderRegistry_GetAllIsSnapshot(t *testing.T) {
	reg := NewLLMProviderRegistry(map[string]*LLMProviderConfig{
		"a": {Endpoint: "x", Model: "m", MaxTokens: 1000},
	})
	all := reg.GetAll()
	delete(all, "a")
	assert.Equal(t, 1, reg.Len(), "deleting from a GetAll snapshot must not affect the registry")
}
