package llm_test

import (
	"testing"
	"time"

	"github.com/tailored-agentic-units/coach/llm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := llm.DefaultConfig()

	if cfg.Provider != llm.ProviderOpenAI {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.DefaultModel(llm.ProviderOpenAI) != "gpt-4o-mini" {
		t.Errorf("openai model = %q", cfg.DefaultModel(llm.ProviderOpenAI))
	}
	if cfg.DefaultModel(llm.ProviderOllama) != "llama3.2:latest" {
		t.Errorf("ollama model = %q", cfg.DefaultModel(llm.ProviderOllama))
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("ollama base URL = %q", cfg.Ollama.BaseURL)
	}
}

func TestConfig_Timeout(t *testing.T) {
	cfg := llm.DefaultConfig()

	tests := []struct {
		task llm.Task
		want time.Duration
	}{
		{task: llm.TaskQuestion, want: 90 * time.Second},
		{task: llm.TaskDraft, want: 240 * time.Second},
		{task: llm.TaskExtract, want: 180 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.Timeout(tt.task); got != tt.want {
			t.Errorf("Timeout(%s) = %v, want %v", tt.task, got, tt.want)
		}
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := llm.DefaultConfig()
	source := llm.Config{
		Provider: llm.ProviderOllama,
		Ollama: llm.OllamaConfig{
			BaseURL: "http://gpu-box:11434",
			Model:   "qwen3:8b",
		},
		Timeouts: llm.TimeoutConfig{Draft: 300},
	}

	cfg.Merge(&source)

	if cfg.Provider != llm.ProviderOllama {
		t.Errorf("Provider = %q, want ollama", cfg.Provider)
	}
	if cfg.Ollama.Model != "qwen3:8b" {
		t.Errorf("Ollama.Model = %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.EmbeddingModel != "nomic-embed-text:latest" {
		t.Errorf("zero EmbeddingModel overwrote default: %q", cfg.Ollama.EmbeddingModel)
	}
	if cfg.Timeout(llm.TaskDraft) != 300*time.Second {
		t.Errorf("draft timeout = %v", cfg.Timeout(llm.TaskDraft))
	}
	if cfg.Timeout(llm.TaskQuestion) != 90*time.Second {
		t.Errorf("question timeout = %v", cfg.Timeout(llm.TaskQuestion))
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
}
