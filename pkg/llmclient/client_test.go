package llmclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlab/stratlab/pkg/config"
)

// fakeTransport replays a scripted sequence of responses/errors, one per
// call to Send, and records every request it received.
type fakeTransport struct {
	responses []Response
	errs      []error
	calls     int
	requests  []Request
}

func (f *fakeTransport) Send(ctx context.Context, req Request) (Response, error) {
	f.requests = append(f.requests, req)
	i := f.calls
	f.calls++
	var resp Response
	var err error
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

func testProvider() *config.LLMProviderConfig {
	return &config.LLMProviderConfig{Endpoint: "https://llm.example", Model: "gpt-test", MaxTokens: 4096}
}

func noSleep(time.Duration) {}

func TestClient_Generate_ExtractsFencedCode(t *testing.T) {
	transport := &fakeTransport{responses: []Response{{Text: "here you go\n```python\nprint('hi')\n```"}}}
	c := New(transport, testProvider())
	c.sleep = noSleep

	result, err := c.Generate(context.Background(), "sys", "user", GenerateOpts{})
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", result.SourceCode)
	assert.Equal(t, "here you go", result.Rationale)
	assert.Equal(t, 1, transport.calls)
}

func TestClient_Generate_NoExtractableCodeIsNotRetried(t *testing.T) {
	transport := &fakeTransport{responses: []Response{{Text: "just prose, no code at all"}}}
	c := New(transport, testProvider())
	c.sleep = noSleep

	_, err := c.Generate(context.Background(), "sys", "user", GenerateOpts{})
	require.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, 1, transport.calls, "a malformed body is not retried")
}

func TestClient_Generate_RetriesTransportFailureThenSucceeds(t *testing.T) {
	transport := &fakeTransport{
		errs:      []error{ErrTransportFailure, nil},
		responses: []Response{{}, {Text: "```\nx = 1\n```"}},
	}
	c := New(transport, testProvider())
	c.sleep = noSleep

	result, err := c.Generate(context.Background(), "sys", "user", GenerateOpts{})
	require.NoError(t, err)
	assert.Equal(t, "x = 1", result.SourceCode)
	assert.Equal(t, 2, transport.calls)
}

func TestClient_Generate_ExhaustsRetriesOnPersistentRateLimit(t *testing.T) {
	transport := &fakeTransport{errs: []error{ErrRateLimited, ErrRateLimited, ErrRateLimited, ErrRateLimited}}
	provider := testProvider()
	provider.MaxRetries = 3
	c := New(transport, provider)
	c.sleep = noSleep

	_, err := c.Generate(context.Background(), "sys", "user", GenerateOpts{})
	require.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, 4, transport.calls, "initial attempt plus 3 retries")
}

func TestClient_Generate_NonRetryableErrorStopsImmediately(t *testing.T) {
	transport := &fakeTransport{errs: []error{errors.New("boom")}}
	c := New(transport, testProvider())
	c.sleep = noSleep

	_, err := c.Generate(context.Background(), "sys", "user", GenerateOpts{})
	require.ErrorIs(t, err, ErrTransportFailure)
	assert.Equal(t, 1, transport.calls)
}

func TestClient_Generate_DefaultsMaxTokensFromProvider(t *testing.T) {
	transport := &fakeTransport{responses: []Response{{Text: "```\nok\n```"}}}
	c := New(transport, testProvider())
	c.sleep = noSleep

	_, err := c.Generate(context.Background(), "sys", "user", GenerateOpts{})
	require.NoError(t, err)
	require.Len(t, transport.requests, 1)
	assert.Equal(t, 4096, transport.requests[0].MaxTokens)
}

func TestClient_GenerateAnalysis_DecodesFencedJSON(t *testing.T) {
	transport := &fakeTransport{responses: []Response{{Text: "```json\n{\"overall_assessment\":\"solid\"}\n```"}}}
	c := New(transport, testProvider())
	c.sleep = noSleep

	analysis, err := c.GenerateAnalysis(context.Background(), "sys", "user", GenerateOpts{})
	require.NoError(t, err)
	assert.Equal(t, "solid", analysis.OverallAssessment)
}

func TestClient_GenerateAnalysis_MalformedJSONIsNotRetried(t *testing.T) {
	transport := &fakeTransport{responses: []Response{{Text: "not json at all"}}}
	c := New(transport, testProvider())
	c.sleep = noSleep

	_, err := c.GenerateAnalysis(context.Background(), "sys", "user", GenerateOpts{})
	require.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, 1, transport.calls)
}

func TestJitteredBackoff_WithinExpectedRange(t *testing.T) {
	for attempt := 0; attempt < 6; attempt++ {
		d := jitteredBackoff(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 8*time.Second)
	}
}
