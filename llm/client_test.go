package llm_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/tailored-agentic-units/coach/core/protocol"
	"github.com/tailored-agentic-units/coach/llm"
	"github.com/tailored-agentic-units/coach/observability"
)

type fakeModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	empty    bool
	block    bool
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	m.messages = messages
	for _, opt := range options {
		opt(&m.opts)
	}
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.empty {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.reply}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type factoryCall struct {
	provider llm.Provider
	model    string
}

func newTestClient(t *testing.T, model *fakeModel, calls *[]factoryCall) *llm.Client {
	t.Helper()
	cfg := llm.DefaultConfig()
	factory := func(provider llm.Provider, name string) (llms.Model, error) {
		if calls != nil {
			*calls = append(*calls, factoryCall{provider, name})
		}
		return model, nil
	}
	return llm.New(&cfg, llm.WithFactory(factory), llm.WithObserver(observability.NoOpObserver{}))
}

func TestClient_Generate(t *testing.T) {
	model := &fakeModel{reply: "An Epic is a large initiative."}
	var calls []factoryCall
	c := newTestClient(t, model, &calls)

	turns := []protocol.Turn{
		protocol.NewTurn(protocol.RoleSystem, "You are a coach."),
		protocol.NewTurn(protocol.RoleUser, "What is an Epic?"),
	}

	resp, err := c.Generate(context.Background(), llm.Request{}, turns)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "An Epic is a large initiative." {
		t.Errorf("got content %q", resp.Content)
	}
	if resp.Provider != llm.ProviderOpenAI || resp.Model != "gpt-4o-mini" {
		t.Errorf("got %s/%s, want openai/gpt-4o-mini", resp.Provider, resp.Model)
	}
	if len(model.messages) != 2 {
		t.Fatalf("model received %d messages, want 2", len(model.messages))
	}
	if model.messages[0].Role != llms.ChatMessageTypeSystem {
		t.Errorf("first message role = %q, want system", model.messages[0].Role)
	}
	if model.opts.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", model.opts.Temperature)
	}

	if _, err := c.Generate(context.Background(), llm.Request{}, turns); err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("factory called %d times, want 1 (cached)", len(calls))
	}

	models := c.Models()
	if len(models) != 1 || models[0].String() != "openai/gpt-4o-mini" {
		t.Errorf("Models() = %v, want [openai/gpt-4o-mini]", models)
	}
}

func TestClient_Generate_RequestOverrides(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	var calls []factoryCall
	c := newTestClient(t, model, &calls)

	temp := 0.2
	req := llm.Request{Provider: llm.ProviderOllama, Temperature: &temp}
	resp, err := c.Generate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Model != "llama3.2:latest" {
		t.Errorf("got model %q, want llama3.2:latest", resp.Model)
	}
	if calls[0].provider != llm.ProviderOllama {
		t.Errorf("factory provider = %q, want ollama", calls[0].provider)
	}
	if model.opts.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", model.opts.Temperature)
	}
}

func TestClient_Generate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
		req   llm.Request
		want  error
	}{
		{
			name:  "timeout",
			model: &fakeModel{block: true},
			req:   llm.Request{Timeout: 20 * time.Millisecond},
			want:  llm.ErrProviderTimeout,
		},
		{
			name:  "connection refused",
			model: &fakeModel{err: errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")},
			want:  llm.ErrProviderUnavailable,
		},
		{
			name:  "no choices",
			model: &fakeModel{empty: true},
			want:  llm.ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.model, nil)
			_, err := c.Generate(context.Background(), tt.req, []protocol.Turn{protocol.NewTurn(protocol.RoleUser, "hi")})
			if !errors.Is(err, tt.want) {
				t.Errorf("Generate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_Generate_FactoryFailure(t *testing.T) {
	cfg := llm.DefaultConfig()
	c := llm.New(&cfg, llm.WithObserver(observability.NoOpObserver{}))

	_, err := c.Generate(context.Background(), llm.Request{Provider: llm.ProviderOpenAI}, nil)
	if !errors.Is(err, llm.ErrProviderUnavailable) || !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Errorf("Generate() error = %v, want ErrProviderUnavailable wrapping ErrMissingAPIKey", err)
	}

	_, err = c.Generate(context.Background(), llm.Request{Provider: "bedrock"}, nil)
	if !errors.Is(err, llm.ErrUnknownProvider) {
		t.Errorf("Generate() error = %v, want ErrUnknownProvider", err)
	}
}

func TestClient_Generate_EmitsEvents(t *testing.T) {
	metrics := observability.NewMetricsObserver()
	cfg := llm.DefaultConfig()
	c := llm.New(&cfg,
		llm.WithFactory(func(llm.Provider, string) (llms.Model, error) { return &fakeModel{reply: "ok"}, nil }),
		llm.WithObserver(metrics),
	)

	if _, err := c.Generate(context.Background(), llm.Request{}, nil); err != nil {
		t.Fatal(err)
	}

	if metrics.Count(llm.EventGenerateComplete) != 1 {
		t.Errorf("complete events = %d, want 1", metrics.Count(llm.EventGenerateComplete))
	}
	if metrics.Count(llm.EventModelCreated) != 1 {
		t.Errorf("model created events = %d, want 1", metrics.Count(llm.EventModelCreated))
	}
}

func TestMessages(t *testing.T) {
	turns := []protocol.Turn{
		{Role: protocol.RoleSystem, Content: "sys"},
		{Role: protocol.RoleUser, Content: "q"},
		{Role: protocol.RoleAssistant, Content: "a"},
	}

	msgs := llm.Messages(turns)

	want := []llms.ChatMessageType{llms.ChatMessageTypeSystem, llms.ChatMessageTypeHuman, llms.ChatMessageTypeAI}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i, m := range msgs {
		if m.Role != want[i] {
			t.Errorf("msgs[%d].Role = %q, want %q", i, m.Role, want[i])
		}
		text, ok := m.Parts[0].(llms.TextContent)
		if !ok || text.Text != turns[i].Content {
			t.Errorf("msgs[%d] part = %#v, want text %q", i, m.Parts[0], turns[i].Content)
		}
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    llm.Provider
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "OpenAI", want: llm.ProviderOpenAI},
		{in: " ollama ", want: llm.ProviderOllama},
		{in: "anthropic", wantErr: true},
	}

	for _, tt := range tests {
		got, err := llm.ParseProvider(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProvider(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
