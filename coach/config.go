package coach

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/coach/knowledge"
	"github.com/tailored-agentic-units/coach/library"
	"github.com/tailored-agentic-units/coach/llm"
	"github.com/tailored-agentic-units/coach/prompt"
	"github.com/tailored-agentic-units/coach/session"
)

const defaultListen = ":8050"

// Config holds initialization parameters for all coach subsystems.
// Each subsystem section delegates to that subsystem's config-driven constructor.
type Config struct {
	Listen    string           `json:"listen,omitempty" yaml:"listen,omitempty"`
	Observers []string         `json:"observers,omitempty" yaml:"observers,omitempty"`
	LLM       llm.Config       `json:"llm" yaml:"llm"`
	Knowledge knowledge.Config `json:"knowledge" yaml:"knowledge"`
	Session   session.Config   `json:"session" yaml:"session"`
	Prompt    prompt.Config    `json:"prompt" yaml:"prompt"`
	Library   library.Config   `json:"library" yaml:"library"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Listen:    defaultListen,
		LLM:       llm.DefaultConfig(),
		Knowledge: knowledge.DefaultConfig(),
		Session:   session.DefaultConfig(),
		Prompt:    prompt.DefaultConfig(),
		Library:   library.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.LLM.Merge(&source.LLM)
	c.Knowledge.Merge(&source.Knowledge)
	c.Session.Merge(&source.Session)
	c.Prompt.Merge(&source.Prompt)
	c.Library.Merge(&source.Library)

	if source.Listen != "" {
		c.Listen = source.Listen
	}
	if len(source.Observers) > 0 {
		c.Observers = source.Observers
	}
}

// ApplyEnv overlays provider settings from the environment. lookup is
// usually os.LookupEnv. Setting both OLLAMA_BASE_URL and OLLAMA_CHAT_MODEL
// selects the Ollama provider unless COACH_PROVIDER says otherwise.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := get("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.APIKey = v
	}
	if v := get("OPENAI_BASE_URL"); v != "" {
		c.LLM.OpenAI.BaseURL = v
	}

	ollamaURL := get("OLLAMA_BASE_URL")
	ollamaModel := get("OLLAMA_CHAT_MODEL")
	if ollamaURL != "" {
		c.LLM.Ollama.BaseURL = ollamaURL
	}
	if ollamaModel != "" {
		c.LLM.Ollama.Model = ollamaModel
	}
	if v := get("OLLAMA_EMBEDDING_MODEL"); v != "" {
		c.LLM.Ollama.EmbeddingModel = v
	}
	if ollamaURL != "" && ollamaModel != "" {
		c.LLM.Provider = llm.ProviderOllama
	}

	if v := get("COACH_PROVIDER"); v != "" {
		p, err := llm.ParseProvider(v)
		if err != nil {
			return fmt.Errorf("COACH_PROVIDER: %w", err)
		}
		c.LLM.Provider = p
	}
	if v := get("COACH_LISTEN"); v != "" {
		c.Listen = v
	}

	return nil
}

// LoadConfig reads a JSON or YAML config file, merges it with defaults, and
// returns the resulting Config. Files ending in .yaml or .yml are parsed as
// YAML, anything else as JSON.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
