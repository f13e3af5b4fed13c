package llm

import "errors"

// Sentinel errors returned by Client.
var (
	ErrProviderTimeout     = errors.New("llm provider timed out")
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	ErrEmptyResponse       = errors.New("llm returned no choices")
	ErrUnknownProvider     = errors.New("unknown llm provider")
	ErrMissingAPIKey       = errors.New("missing OpenAI API key")
)
