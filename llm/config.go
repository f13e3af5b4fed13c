package llm

import "time"

// Task selects the timeout applied to a generation call.
type Task string

const (
	TaskQuestion Task = "question"
	TaskDraft    Task = "draft"
	TaskExtract  Task = "extract"
)

// OpenAIConfig configures the hosted provider.
type OpenAIConfig struct {
	APIKey         string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model          string `json:"model,omitempty" yaml:"model,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
}

// OllamaConfig configures the local provider.
type OllamaConfig struct {
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model          string `json:"model,omitempty" yaml:"model,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
}

// TimeoutConfig holds per-task timeouts in seconds.
type TimeoutConfig struct {
	Question int `json:"question_seconds,omitempty" yaml:"question_seconds,omitempty"`
	Draft    int `json:"draft_seconds,omitempty" yaml:"draft_seconds,omitempty"`
	Extract  int `json:"extract_seconds,omitempty" yaml:"extract_seconds,omitempty"`
}

// Config holds LLM adapter settings.
type Config struct {
	Provider    Provider      `json:"provider,omitempty" yaml:"provider,omitempty"`
	Temperature float64       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	OpenAI      OpenAIConfig  `json:"openai" yaml:"openai"`
	Ollama      OllamaConfig  `json:"ollama" yaml:"ollama"`
	Timeouts    TimeoutConfig `json:"timeouts" yaml:"timeouts"`
}

// DefaultConfig returns the adapter defaults: OpenAI gpt-4o-mini, a local
// Ollama at the standard port, and 90/240/180 second timeouts.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderOpenAI,
		Temperature: 0.7,
		OpenAI: OpenAIConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
		},
		Ollama: OllamaConfig{
			BaseURL:        "http://localhost:11434",
			Model:          "llama3.2:latest",
			EmbeddingModel: "nomic-embed-text:latest",
		},
		Timeouts: TimeoutConfig{
			Question: 90,
			Draft:    240,
			Extract:  180,
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if source.Temperature > 0 {
		c.Temperature = source.Temperature
	}

	if source.OpenAI.APIKey != "" {
		c.OpenAI.APIKey = source.OpenAI.APIKey
	}
	if source.OpenAI.BaseURL != "" {
		c.OpenAI.BaseURL = source.OpenAI.BaseURL
	}
	if source.OpenAI.Model != "" {
		c.OpenAI.Model = source.OpenAI.Model
	}
	if source.OpenAI.EmbeddingModel != "" {
		c.OpenAI.EmbeddingModel = source.OpenAI.EmbeddingModel
	}

	if source.Ollama.BaseURL != "" {
		c.Ollama.BaseURL = source.Ollama.BaseURL
	}
	if source.Ollama.Model != "" {
		c.Ollama.Model = source.Ollama.Model
	}
	if source.Ollama.EmbeddingModel != "" {
		c.Ollama.EmbeddingModel = source.Ollama.EmbeddingModel
	}

	if source.Timeouts.Question > 0 {
		c.Timeouts.Question = source.Timeouts.Question
	}
	if source.Timeouts.Draft > 0 {
		c.Timeouts.Draft = source.Timeouts.Draft
	}
	if source.Timeouts.Extract > 0 {
		c.Timeouts.Extract = source.Timeouts.Extract
	}
}

// Timeout returns the configured timeout for task.
func (c *Config) Timeout(task Task) time.Duration {
	switch task {
	case TaskDraft:
		return time.Duration(c.Timeouts.Draft) * time.Second
	case TaskExtract:
		return time.Duration(c.Timeouts.Extract) * time.Second
	default:
		return time.Duration(c.Timeouts.Question) * time.Second
	}
}

// DefaultModel returns the configured chat model for provider.
func (c *Config) DefaultModel(provider Provider) string {
	if provider == ProviderOllama {
		return c.Ollama.Model
	}
	return c.OpenAI.Model
}
