package coach_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tailored-agentic-units/coach/coach"
	"github.com/tailored-agentic-units/coach/llm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := coach.DefaultConfig()

	if cfg.Listen != ":8050" {
		t.Errorf("got Listen %q, want :8050", cfg.Listen)
	}
	if cfg.LLM.Provider != llm.ProviderOpenAI {
		t.Errorf("got provider %q, want openai", cfg.LLM.Provider)
	}
	if cfg.Session.Dir == "" || cfg.Knowledge.Dir == "" || cfg.Prompt.Dir == "" {
		t.Error("expected subsystem directories to default")
	}
	if cfg.Library.DBPath == "" {
		t.Error("expected template library path to default")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := coach.DefaultConfig()

	source := &coach.Config{Listen: ":9000", Observers: []string{"noop"}}
	source.LLM.Provider = llm.ProviderOllama
	source.Session.Dir = "/tmp/sessions"

	cfg.Merge(source)

	if cfg.Listen != ":9000" {
		t.Errorf("got Listen %q, want :9000", cfg.Listen)
	}
	if len(cfg.Observers) != 1 || cfg.Observers[0] != "noop" {
		t.Errorf("got Observers %v, want [noop]", cfg.Observers)
	}
	if cfg.LLM.Provider != llm.ProviderOllama {
		t.Errorf("got provider %q, want ollama", cfg.LLM.Provider)
	}
	if cfg.Session.Dir != "/tmp/sessions" {
		t.Errorf("got session dir %q", cfg.Session.Dir)
	}
	if cfg.LLM.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("got OpenAI model %q, want default preserved", cfg.LLM.OpenAI.Model)
	}
}

func TestConfig_Merge_ZeroValuesPreserveDefaults(t *testing.T) {
	cfg := coach.DefaultConfig()
	original := cfg

	cfg.Merge(&coach.Config{})

	if cfg.Listen != original.Listen || cfg.Knowledge.TopK != original.Knowledge.TopK {
		t.Errorf("zero-value merge changed defaults: %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "config.json",
			content: `{
				"listen": ":7000",
				"llm": {"provider": "ollama", "ollama": {"model": "mistral"}},
				"session": {"dir": "/tmp/s"},
				"library": {"disabled": true}
			}`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `listen: ":7000"
llm:
  provider: ollama
  ollama:
    model: mistral
session:
  dir: /tmp/s
library:
  disabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			cfg, err := coach.LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}

			if cfg.Listen != ":7000" {
				t.Errorf("got Listen %q", cfg.Listen)
			}
			if cfg.LLM.Provider != llm.ProviderOllama || cfg.LLM.Ollama.Model != "mistral" {
				t.Errorf("got LLM %+v", cfg.LLM)
			}
			if cfg.LLM.Ollama.BaseURL != "http://localhost:11434" {
				t.Errorf("got Ollama base URL %q, want default preserved", cfg.LLM.Ollama.BaseURL)
			}
			if cfg.Session.Dir != "/tmp/s" {
				t.Errorf("got session dir %q", cfg.Session.Dir)
			}
			if !cfg.Library.Disabled {
				t.Error("expected library disabled")
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := coach.LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := coach.LoadConfig(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		wantProvider llm.Provider
		wantErr      error
		check        func(t *testing.T, cfg coach.Config)
	}{
		{
			name:         "openai key",
			env:          map[string]string{"OPENAI_API_KEY": "sk-test"},
			wantProvider: llm.ProviderOpenAI,
			check: func(t *testing.T, cfg coach.Config) {
				if cfg.LLM.OpenAI.APIKey != "sk-test" {
					t.Errorf("got key %q", cfg.LLM.OpenAI.APIKey)
				}
			},
		},
		{
			name: "ollama url and model select ollama",
			env: map[string]string{
				"OLLAMA_BASE_URL":        "http://gpu:11434",
				"OLLAMA_CHAT_MODEL":      "qwen2.5",
				"OLLAMA_EMBEDDING_MODEL": "mxbai-embed-large",
			},
			wantProvider: llm.ProviderOllama,
			check: func(t *testing.T, cfg coach.Config) {
				if cfg.LLM.Ollama.BaseURL != "http://gpu:11434" || cfg.LLM.Ollama.Model != "qwen2.5" {
					t.Errorf("got Ollama %+v", cfg.LLM.Ollama)
				}
				if cfg.LLM.Ollama.EmbeddingModel != "mxbai-embed-large" {
					t.Errorf("got embedding model %q", cfg.LLM.Ollama.EmbeddingModel)
				}
			},
		},
		{
			name:         "ollama url alone keeps provider",
			env:          map[string]string{"OLLAMA_BASE_URL": "http://gpu:11434"},
			wantProvider: llm.ProviderOpenAI,
		},
		{
			name: "explicit provider wins",
			env: map[string]string{
				"OLLAMA_BASE_URL":   "http://gpu:11434",
				"OLLAMA_CHAT_MODEL": "qwen2.5",
				"COACH_PROVIDER":    "openai",
				"COACH_LISTEN":      ":9999",
			},
			wantProvider: llm.ProviderOpenAI,
			check: func(t *testing.T, cfg coach.Config) {
				if cfg.Listen != ":9999" {
					t.Errorf("got Listen %q", cfg.Listen)
				}
			},
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"COACH_PROVIDER": "bard"},
			wantErr: llm.ErrUnknownProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := coach.DefaultConfig()
			err := cfg.ApplyEnv(func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnv() error = %v", err)
			}
			if cfg.LLM.Provider != tt.wantProvider {
				t.Errorf("got provider %q, want %q", cfg.LLM.Provider, tt.wantProvider)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
