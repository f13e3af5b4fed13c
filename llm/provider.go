// Package llm adapts the coach's conversation turns to hosted (OpenAI) and
// local (Ollama) chat models through langchaingo. Models are created lazily
// per provider and model name and cached in a Registry.
package llm

import (
	"fmt"
	"strings"
)

// Provider names an LLM backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// ParseProvider accepts a provider name in any case. An empty string
// returns an empty Provider so callers fall back to the configured default.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "openai":
		return ProviderOpenAI, nil
	case "ollama":
		return ProviderOllama, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, s)
	}
}
