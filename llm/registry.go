package llm

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Factory creates a chat model for a provider and model name.
type Factory func(provider Provider, model string) (llms.Model, error)

// ModelKey identifies a cached model.
type ModelKey struct {
	Provider Provider
	Model    string
}

func (k ModelKey) String() string {
	return string(k.Provider) + "/" + k.Model
}

// Registry caches chat models with lazy instantiation. Models are created
// on the first Get for a provider/model pair. Safe for concurrent access.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	models  map[ModelKey]llms.Model
}

// NewRegistry creates an empty Registry backed by factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		models:  make(map[ModelKey]llms.Model),
	}
}

// Get returns the cached model for provider and model, creating it on
// first access.
func (r *Registry) Get(provider Provider, model string) (llms.Model, bool, error) {
	key := ModelKey{Provider: provider, Model: model}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, exists := r.models[key]; exists {
		return m, false, nil
	}

	m, err := r.factory(provider, model)
	if err != nil {
		return nil, false, fmt.Errorf("create model %s: %w", key, err)
	}

	r.models[key] = m
	return m, true, nil
}

// Keys returns the cached model keys sorted by provider and model.
func (r *Registry) Keys() []ModelKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]ModelKey, 0, len(r.models))
	for key := range r.models {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	return keys
}

// NewFactory returns the Factory that builds langchaingo OpenAI and Ollama
// models from cfg.
func NewFactory(cfg *Config, httpClient *http.Client) Factory {
	return func(provider Provider, model string) (llms.Model, error) {
		switch provider {
		case ProviderOpenAI:
			if cfg.OpenAI.APIKey == "" {
				return nil, ErrMissingAPIKey
			}
			opts := []openai.Option{
				openai.WithToken(cfg.OpenAI.APIKey),
				openai.WithModel(model),
				openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
			}
			if cfg.OpenAI.BaseURL != "" {
				opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
			}
			if httpClient != nil {
				opts = append(opts, openai.WithHTTPClient(httpClient))
			}
			m, err := openai.New(opts...)
			if err != nil {
				return nil, err
			}
			return m, nil

		case ProviderOllama:
			if err := checkServerURL(cfg.Ollama.BaseURL); err != nil {
				return nil, err
			}
			opts := []ollama.Option{
				ollama.WithModel(model),
				ollama.WithServerURL(cfg.Ollama.BaseURL),
			}
			if httpClient != nil {
				opts = append(opts, ollama.WithHTTPClient(httpClient))
			}
			m, err := ollama.New(opts...)
			if err != nil {
				return nil, err
			}
			return m, nil

		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
		}
	}
}

// ollama.WithServerURL exits the process on a malformed URL.
func checkServerURL(raw string) error {
	if _, err := url.Parse(raw); err != nil {
		return fmt.Errorf("ollama base url: %w", err)
	}
	return nil
}
