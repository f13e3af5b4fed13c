// Package coach implements the Discovery Coach service: it composes the
// session manager, prompt builder, knowledge index and LLM client into the
// chat, evaluate and drafting operations served over HTTP, Connect and MCP.
//
// The coach initializes from configuration via New, creating all subsystems
// internally. Functional options allow test overrides of any subsystem.
//
//	c, err := coach.New(ctx, &cfg)
//	defer c.Close()
//	resp, err := c.Chat(ctx, coach.ChatRequest{Message: "Draft an epic for onboarding"})
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tailored-agentic-units/coach/core/protocol"
	"github.com/tailored-agentic-units/coach/knowledge"
	"github.com/tailored-agentic-units/coach/library"
	"github.com/tailored-agentic-units/coach/llm"
	"github.com/tailored-agentic-units/coach/observability"
	"github.com/tailored-agentic-units/coach/prompt"
	"github.com/tailored-agentic-units/coach/session"
	"github.com/tailored-agentic-units/coach/store"
)

// Generator produces a model reply for a sequence of turns.
// *llm.Client is the default implementation.
type Generator interface {
	Generate(ctx context.Context, req llm.Request, turns []protocol.Turn) (*llm.Response, error)
}

// ProviderStatus reports on the local model server.
type ProviderStatus interface {
	OllamaStatus(ctx context.Context) llm.OllamaStatus
	OllamaModels(ctx context.Context) ([]string, error)
}

// Option configures a Coach before config-driven initialization. Subsystems
// supplied through options are not created from configuration.
type Option func(*Coach)

// WithGenerator overrides the config-created LLM client for generation.
func WithGenerator(g Generator) Option {
	return func(c *Coach) { c.generator = g }
}

// WithProviderStatus overrides the config-created Ollama status source.
func WithProviderStatus(s ProviderStatus) Option {
	return func(c *Coach) { c.status = s }
}

// WithRetriever overrides the config-created knowledge index as the
// prompt builder's retriever. Ingest is unavailable when set.
func WithRetriever(r prompt.Retriever) Option {
	return func(c *Coach) { c.retriever = r }
}

// WithIndex supplies an open knowledge index.
func WithIndex(ix *knowledge.Index) Option {
	return func(c *Coach) {
		c.index = ix
		c.retriever = ix
	}
}

// WithLibrary supplies an open template library.
func WithLibrary(l *library.Store) Option {
	return func(c *Coach) {
		c.library = l
		c.libraryOpened = true
	}
}

// WithObserver overrides the observers named in configuration. Events are
// still counted by the coach's MetricsObserver.
func WithObserver(o observability.Observer) Option {
	return func(c *Coach) { c.observer = o }
}

// Coach is the coaching service.
type Coach struct {
	cfg           Config
	sessions      *session.Manager
	saved         *session.Store
	client        *llm.Client
	generator     Generator
	status        ProviderStatus
	retriever     prompt.Retriever
	index         *knowledge.Index
	builder       *prompt.Builder
	prompts       *prompt.Library
	templates     *prompt.Library
	library       *library.Store
	libraryOpened bool
	observer      observability.Observer
	metrics       *observability.MetricsObserver
}

// New creates a Coach from configuration. The knowledge index is opened but
// not ingested; call Ingest before serving. When no embedder can be built
// for the configured provider the coach runs without retrieval.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Coach, error) {
	c := &Coach{
		cfg:      *cfg,
		sessions: session.NewManager(),
		saved:    session.New(&cfg.Session),
		metrics:  observability.NewMetricsObserver(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.observer == nil {
		obs, err := observability.Resolve(slog.Default(), cfg.Observers, c.metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observers: %w", err)
		}
		c.observer = obs
	} else {
		c.observer = observability.NewMultiObserver(c.observer, c.metrics)
	}

	c.client = llm.New(&c.cfg.LLM, llm.WithObserver(c.observer))
	if c.generator == nil {
		c.generator = c.client
	}
	if c.status == nil {
		c.status = c.client
	}

	if c.retriever == nil {
		if err := c.openIndex(ctx); err != nil {
			return nil, err
		}
	}

	if !c.libraryOpened {
		lib, err := library.Open(ctx, &c.cfg.Library)
		if err != nil {
			c.closeIndex()
			return nil, fmt.Errorf("failed to open template library: %w", err)
		}
		c.library = lib
	}

	c.builder = prompt.NewBuilder(&c.cfg.Prompt, c.retriever, prompt.WithObserver(c.observer))
	c.prompts = prompt.NewLibrary(
		store.NewFileStore(c.cfg.Prompt.Dir),
		c.cfg.Prompt.SystemFile,
		prompt.WithLibraryObserver(c.observer),
	)
	c.templates = prompt.NewLibrary(
		store.NewFileStore(c.cfg.Knowledge.Dir),
		"",
		prompt.WithLibraryObserver(c.observer),
	)

	return c, nil
}

func (c *Coach) openIndex(ctx context.Context) error {
	embedder, err := c.client.Embedder(c.cfg.LLM.Provider)
	if err != nil {
		c.emit(ctx, EventRetrievalDisabled, observability.LevelWarning, "coach.New",
			map[string]any{"provider": string(c.cfg.LLM.Provider), "error": err})
		return nil
	}

	ix, err := knowledge.Open(ctx, &c.cfg.Knowledge, embedder, knowledge.WithObserver(c.observer))
	if err != nil {
		return fmt.Errorf("failed to open knowledge index: %w", err)
	}
	c.index = ix
	c.retriever = ix
	return nil
}

func (c *Coach) closeIndex() error {
	if c.index == nil {
		return nil
	}
	return c.index.Close()
}

// Close releases the knowledge index and the template library.
func (c *Coach) Close() error {
	return errors.Join(c.closeIndex(), c.library.Close())
}

// Config returns a copy of the coach's configuration.
func (c *Coach) Config() Config {
	return c.cfg
}

// Sessions returns the live session manager.
func (c *Coach) Sessions() *session.Manager {
	return c.sessions
}

// Prompts returns the prompt file library.
func (c *Coach) Prompts() *prompt.Library {
	return c.prompts
}

// Templates returns the template library. The result is nil when the
// library is disabled; its methods then return library.ErrDisabled.
func (c *Coach) Templates() *library.Store {
	return c.library
}

// Metrics returns a snapshot of the events observed so far.
func (c *Coach) Metrics() observability.Snapshot {
	return c.metrics.Snapshot()
}

// Runtime describes the coach's in-memory state.
type Runtime struct {
	LiveSessions int      `json:"liveSessions"`
	Models       []string `json:"models"`
}

// Runtime reports the number of live sessions and the chat models created
// so far.
func (c *Coach) Runtime() Runtime {
	keys := c.client.Models()
	models := make([]string, len(keys))
	for i, k := range keys {
		models[i] = k.String()
	}
	return Runtime{LiveSessions: c.sessions.Len(), Models: models}
}

// OllamaStatus reports whether the local Ollama server is reachable.
func (c *Coach) OllamaStatus(ctx context.Context) llm.OllamaStatus {
	return c.status.OllamaStatus(ctx)
}

// OllamaModels lists the chat models installed on the local Ollama server.
func (c *Coach) OllamaModels(ctx context.Context) ([]string, error) {
	return c.status.OllamaModels(ctx)
}

// Ingest indexes the knowledge directory. Unless force is set, an index
// that already holds chunks is left untouched.
func (c *Coach) Ingest(ctx context.Context, force bool) (knowledge.IngestReport, error) {
	if c.index == nil {
		return knowledge.IngestReport{}, ErrRetrievalDisabled
	}
	return c.index.Ingest(ctx, store.NewFileStore(c.cfg.Knowledge.Dir), force)
}

// Search returns the knowledge snippets most relevant to query. k <= 0 uses
// the configured default.
func (c *Coach) Search(ctx context.Context, query string, k int) ([]knowledge.Snippet, error) {
	if c.retriever == nil {
		return nil, ErrRetrievalDisabled
	}
	if k <= 0 {
		k = c.cfg.Prompt.TopK
	}
	return c.retriever.Retrieve(ctx, query, k)
}

func (c *Coach) emit(ctx context.Context, typ observability.EventType, level observability.Level, source string, data map[string]any) {
	c.observer.OnEvent(ctx, observability.NewEvent(typ, level, source, data))
}
