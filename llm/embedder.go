package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder builds the embedding model for provider: OpenAI
// text-embedding-3-small or Ollama nomic-embed-text by default.
func (c *Client) Embedder(provider Provider) (embeddings.Embedder, error) {
	if provider == "" {
		provider = c.cfg.Provider
	}

	var client embeddings.EmbedderClient
	switch provider {
	case ProviderOpenAI:
		if c.cfg.OpenAI.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		opts := []openai.Option{
			openai.WithToken(c.cfg.OpenAI.APIKey),
			openai.WithEmbeddingModel(c.cfg.OpenAI.EmbeddingModel),
			openai.WithHTTPClient(c.http),
		}
		if c.cfg.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(c.cfg.OpenAI.BaseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
		}
		client = m

	case ProviderOllama:
		if err := checkServerURL(c.cfg.Ollama.BaseURL); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
		}
		m, err := ollama.New(
			ollama.WithModel(c.cfg.Ollama.EmbeddingModel),
			ollama.WithServerURL(c.cfg.Ollama.BaseURL),
			ollama.WithHTTPClient(c.http),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
		}
		client = m

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	e, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, err
	}
	return e, nil
}
