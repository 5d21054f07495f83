package llmclient

import "errors"

var (
	// ErrRateLimited indicates the provider responded with a rate-limit
	// status. Transport.Send returns it; the client retries internally and,
	// once retries are exhausted, reports ErrInvalidResponse carrying this
	// error's text (spec.md §4.3, §7).
	ErrRateLimited = errors.New("llm provider rate limited the request")

	// ErrInvalidResponse indicates the response text carried no extractable
	// code artifact (spec.md §4.3, §7).
	ErrInvalidResponse = errors.New("llm response had no extractable code")

	// ErrTransportFailure indicates a non-retryable or retry-exhausted
	// transport error (spec.md §4.3, §7).
	ErrTransportFailure = errors.New("llm transport failure")
)
