// Package prompt assembles the messages sent to the LLM: the system
// prompt, snippets retrieved from the knowledge index, a trailing window of
// conversation history and the user query. It also serves the prompt files
// the system prompt is loaded from.
package prompt

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/tailored-agentic-units/coach/core/protocol"
	"github.com/tailored-agentic-units/coach/knowledge"
	"github.com/tailored-agentic-units/coach/observability"
)

const (
	contextHeader = "Content from internal documents:\n"

	// SummaryContext replaces retrieved snippets for summary requests.
	SummaryContext = "Summary request - using active Epic/Feature context only."
	// RetrievalFailedContext replaces retrieved snippets when retrieval fails.
	RetrievalFailedContext = "Retrieval failed - using only active context."
	// NoRetrieverContext is used when no knowledge index is configured.
	NoRetrieverContext = "No internal documents available."
)

// Retriever finds knowledge snippets relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]knowledge.Snippet, error)
}

// Input is everything a prompt is built from.
type Input struct {
	System        string
	Message       string
	ActiveEpic    string
	ActiveFeature string
	History       []protocol.Turn
	// Intent overrides classification of Message when set.
	Intent Intent
	// NoHistory drops the history window regardless of intent.
	NoHistory bool
}

// Prompt is the assembled request.
type Prompt struct {
	Intent   Intent
	Query    string
	Context  string
	Snippets []knowledge.Snippet
	Messages []protocol.Turn
}

// Render flattens the messages into a single string, one block per turn.
func (p *Prompt) Render() string {
	var b strings.Builder
	for i, m := range p.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[")
		b.WriteString(strings.ToUpper(string(m.Role)))
		b.WriteString("]\n")
		b.WriteString(m.Content)
	}
	return b.String()
}

// Option configures a Builder.
type Option func(*Builder)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(b *Builder) { b.observer = o }
}

// Builder assembles prompts. A nil Retriever disables retrieval.
type Builder struct {
	cfg       Config
	retriever Retriever
	observer  observability.Observer
}

// NewBuilder creates a Builder.
func NewBuilder(cfg *Config, retriever Retriever, opts ...Option) *Builder {
	b := &Builder{
		cfg:       *cfg,
		retriever: retriever,
		observer:  observability.NewSlogObserver(slog.Default()),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Query prefixes message with the active Epic and Feature drafts.
func Query(message, activeEpic, activeFeature string) string {
	var parts strings.Builder
	if activeEpic != "" {
		parts.WriteString("[ACTIVE EPIC]\n" + activeEpic + "\n")
	}
	if activeFeature != "" {
		parts.WriteString("[ACTIVE FEATURE]\n" + activeFeature + "\n")
	}
	if parts.Len() == 0 {
		return message
	}
	return parts.String() + "\n[USER QUESTION]\n" + message
}

// Build assembles the prompt for in. Retrieval failures degrade to a
// placeholder context and are reported as events, never returned.
func (b *Builder) Build(ctx context.Context, in Input) (*Prompt, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, ErrEmptyMessage
	}

	intent := in.Intent
	if intent == "" {
		intent = Classify(in.Message)
	}

	p := &Prompt{Intent: intent, Query: in.Message}
	if intent != IntentSummary {
		p.Query = Query(in.Message, in.ActiveEpic, in.ActiveFeature)
	}

	p.Context = b.retrieve(ctx, p)

	p.Messages = make([]protocol.Turn, 0, 3+intent.HistoryWindow())
	if in.System != "" {
		p.Messages = append(p.Messages, protocol.NewTurn(protocol.RoleSystem, in.System))
	}
	p.Messages = append(p.Messages, protocol.NewTurn(protocol.RoleSystem, contextHeader+p.Context))
	if !in.NoHistory {
		p.Messages = append(p.Messages, window(in.History, intent.HistoryWindow())...)
	}
	p.Messages = append(p.Messages, protocol.NewTurn(protocol.RoleUser, p.Query))

	b.observer.OnEvent(ctx, observability.NewEvent(EventBuild, observability.LevelVerbose, "prompt.Builder",
		map[string]any{
			"intent":         string(intent),
			"query_length":   len(p.Query),
			"context_length": len(p.Context),
			"snippets":       len(p.Snippets),
			"messages":       len(p.Messages),
		}))

	return p, nil
}

func (b *Builder) retrieve(ctx context.Context, p *Prompt) string {
	if !p.Intent.Retrieves() {
		return SummaryContext
	}
	if b.retriever == nil {
		return NoRetrieverContext
	}

	snippets, err := b.retriever.Retrieve(ctx, p.Query, b.cfg.TopK)
	if err != nil {
		b.observer.OnEvent(ctx, observability.NewEvent(EventRetrieveError, observability.LevelWarning, "prompt.Builder",
			map[string]any{"error": err}))
		return RetrievalFailedContext
	}

	if len(snippets) > b.cfg.TopK {
		snippets = snippets[:b.cfg.TopK]
	}
	p.Snippets = snippets

	texts := make([]string, len(snippets))
	for i, s := range snippets {
		texts[i] = s.Content
	}
	joined := strings.Join(texts, "\n\n")

	if b.cfg.MaxContextChars > 0 && len(joined) > b.cfg.MaxContextChars {
		b.observer.OnEvent(ctx, observability.NewEvent(EventContextTruncate, observability.LevelVerbose, "prompt.Builder",
			map[string]any{"length": len(joined), "limit": b.cfg.MaxContextChars}))
		joined = truncate(joined, b.cfg.MaxContextChars)
	}
	return joined
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func window(history []protocol.Turn, n int) []protocol.Turn {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	start := max(len(history)-n, 0)
	return history[start:]
}
