// Package llmclient generalizes the teacher's gRPC-sidecar LLMClient
// (pkg/agent/llm_client.go, pkg/agent/llm_grpc.go) into a pluggable
// Transport interface with an HTTP JSON default, since no .proto/codegen
// step is available in this environment (see DESIGN.md). The LLM remains
// a pure text oracle: the core never executes anything it returns except
// through pkg/sandbox (spec.md §9).
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is a single generate call sent to the transport.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
	Model        string
	APIKey       string
	Endpoint     string
}

// Response is the transport's raw text reply.
type Response struct {
	Text       string
	StatusCode int
}

// Transport sends one request and returns the raw text response. HTTP
// round trips are the default implementation; tests substitute a fake.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// HTTPTransport is the default Transport: a single JSON POST to an
// OpenAI/Anthropic-style chat-completions-shaped endpoint. The exact
// request/response envelope is deliberately generic — the core treats the
// provider as opaque (spec.md §6).
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport builds an HTTPTransport with the given round-trip timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{Client: &http.Client{Timeout: timeout}}
}

type httpRequestBody struct {
	Model       string  `json:"model"`
	System      string  `json:"system"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

type httpResponseBody struct {
	Text string `json:"text"`
}

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(httpRequestBody{
		Model:       req.Model,
		System:      req.SystemPrompt,
		Prompt:      req.UserPrompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return Response{}, fmt.Errorf("%w: marshal request: %v", ErrTransportFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: build request: %v", ErrTransportFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: read response: %v", ErrTransportFailure, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return Response{StatusCode: resp.StatusCode}, ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("%w: status %d", ErrTransportFailure, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}

	var parsed httpResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Some providers return bare text rather than a JSON envelope;
		// fall back to treating the whole body as the response text.
		return Response{Text: string(raw), StatusCode: resp.StatusCode}, nil
	}
	return Response{Text: parsed.Text, StatusCode: resp.StatusCode}, nil
}
