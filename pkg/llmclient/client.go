package llmclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/stratlab/stratlab/pkg/config"
)

// GenerateOpts controls one generate call (spec.md §4.3).
type GenerateOpts struct {
	MaxTokens   int
	Temperature float32
	TimeoutMs   int
}

// GenerateResult is the contract's return value (spec.md §4.3).
type GenerateResult struct {
	SourceCode  string
	Rationale   string
	RawResponse string
}

// Client sends prompts to the configured LLM provider and extracts a code
// artifact and rationale from whatever text comes back. Temperature
// defaults to 0 (deterministic request); retries happen on transport
// failures, up to 3 times with jittered backoff 1-8s (spec.md §4.3).
type Client struct {
	transport Transport
	provider  *config.LLMProviderConfig
	log       *slog.Logger

	// sleep is overridable for tests.
	sleep func(time.Duration)
}

// New builds a Client over transport, configured from provider.
func New(transport Transport, provider *config.LLMProviderConfig) *Client {
	return &Client{
		transport: transport,
		provider:  provider,
		log:       slog.With("component", "llmclient"),
		sleep:     time.Sleep,
	}
}

// Generate implements the request/response contract of spec.md §4.3.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOpts) (*GenerateResult, error) {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.provider.MaxTokens
	}
	temperature := opts.Temperature // zero value is the spec's default of 0

	req := Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
		Model:        c.provider.Model,
		Endpoint:     c.provider.Endpoint,
	}

	maxRetries := c.provider.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.transport.Send(ctx, req)
		if err == nil {
			code, rationale, ok := extractCode(resp.Text)
			if !ok {
				return nil, fmt.Errorf("%w: no fenced or inferred code block in response", ErrInvalidResponse)
			}
			return &GenerateResult{SourceCode: code, Rationale: rationale, RawResponse: resp.Text}, nil
		}

		lastErr = err
		if !isRetryable(err) || attempt == maxRetries {
			break
		}

		backoff := jitteredBackoff(attempt)
		c.log.Warn("llm transport call failed, retrying", "attempt", attempt+1, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			c.sleep(backoff)
		}
	}

	if errors.Is(lastErr, ErrRateLimited) {
		return nil, fmt.Errorf("%w: exhausted retries: %v", ErrInvalidResponse, lastErr)
	}
	return nil, fmt.Errorf("%w: %v", ErrTransportFailure, lastErr)
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransportFailure)
}

// jitteredBackoff returns a 1-8s jittered delay for the given zero-based
// attempt number (spec.md §4.3).
func jitteredBackoff(attempt int) time.Duration {
	base := 1 << attempt // 1, 2, 4, 8...
	if base > 8 {
		base = 8
	}
	jitter := rand.Float64() * float64(base)
	d := time.Duration(float64(time.Second) * (float64(base)/2 + jitter/2))
	if d < time.Second {
		d = time.Second
	}
	return d
}
