package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/stratlab/stratlab/pkg/models"
)

var analysisFencePattern = regexp.MustCompile("(?s)```(?:json)?\\n(.*?)```")

// GenerateAnalysis requests the fixed-schema expert critique of spec.md
// §4.8 and decodes the response directly into an ExpertAnalysis, tolerating
// a markdown fence around the JSON object. It shares Generate's retry
// policy (transport failures only; a malformed JSON body is not retried
// since a fresh sample at temperature 0 would look the same).
func (c *Client) GenerateAnalysis(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOpts) (*models.ExpertAnalysis, error) {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.provider.MaxTokens
	}

	req := Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    maxTokens,
		Temperature:  opts.Temperature,
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
			analysis, perr := decodeAnalysis(resp.Text)
			if perr != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, perr)
			}
			return analysis, nil
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

func decodeAnalysis(text string) (*models.ExpertAnalysis, error) {
	body := text
	if loc := analysisFencePattern.FindStringSubmatchIndex(text); loc != nil {
		body = text[loc[2]:loc[3]]
	}
	body = strings.TrimSpace(body)

	var analysis models.ExpertAnalysis
	if err := json.Unmarshal([]byte(body), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}
