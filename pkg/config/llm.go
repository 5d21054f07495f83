package config

import (
	"fmt"
	"sync"
	"time"
)

// LLMProviderConfig defines how to reach the LLM oracle (spec.md §4.3, §6).
// The core treats the LLM as an opaque text endpoint; this struct carries
// only what the transport needs to dial it.
type LLMProviderConfig struct {
	// Endpoint is the base URL of the LLM service.
	Endpoint string `yaml:"endpoint" validate:"required"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// Model is the model identifier to request.
	Model string `yaml:"model" validate:"required"`

	// MaxTokens is the default max-token budget for a generate call.
	MaxTokens int `yaml:"max_tokens" validate:"required,min=256"`

	// Temperature is the default sampling temperature (§4.3 defaults to 0).
	Temperature float32 `yaml:"temperature"`

	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxRetries bounds transport-failure retries (§4.3: up to 3).
	MaxRetries int `yaml:"max_retries"`
}

// LLMProviderRegistry stores LLM provider configurations with thread-safe access.
type LLMProviderRegistry struct {
	providers map[string]*LLMProviderConfig
	mu        sync.RWMutex
}

// NewLLMProviderRegistry creates a new LLM provider registry.
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{providers: copied}
}

// Get retrieves an LLM provider configuration by name.
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

// GetAll returns all LLM provider configurations (a defensive copy).
func (r *LLMProviderRegistry) GetAll() map[string]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Len returns the number of registered providers.
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
