package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/tailored-agentic-units/coach/core/protocol"
	"github.com/tailored-agentic-units/coach/observability"
)

// Request selects the provider, model and sampling for one call. Zero
// values fall back to the Client's configuration.
type Request struct {
	Provider    Provider
	Model       string
	Temperature *float64
	Timeout     time.Duration
}

// Response is the text produced by one call.
type Response struct {
	Content  string        `json:"content"`
	Provider Provider      `json:"provider"`
	Model    string        `json:"model"`
	Duration time.Duration `json:"-"`
}

// Option configures a Client.
type Option func(*Client)

// WithFactory overrides the langchaingo model factory.
func WithFactory(f Factory) Option {
	return func(c *Client) { c.registry = NewRegistry(f) }
}

// WithHTTPClient sets the HTTP client used for provider calls and the
// Ollama status endpoints.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(c *Client) { c.observer = o }
}

// Client sends conversation turns to a chat model and classifies failures.
type Client struct {
	cfg      Config
	registry *Registry
	http     *http.Client
	observer observability.Observer
}

// New creates a Client from configuration.
func New(cfg *Config, opts ...Option) *Client {
	c := &Client{
		cfg:      *cfg,
		http:     &http.Client{},
		observer: observability.NewSlogObserver(slog.Default()),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = NewRegistry(NewFactory(&c.cfg, c.http))
	}

	return c
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Models returns the keys of the chat models created so far.
func (c *Client) Models() []ModelKey {
	return c.registry.Keys()
}

// Resolve fills zero fields of req from configuration.
func (c *Client) Resolve(req Request) Request {
	if req.Provider == "" {
		req.Provider = c.cfg.Provider
	}
	if req.Model == "" {
		req.Model = c.cfg.DefaultModel(req.Provider)
	}
	if req.Temperature == nil {
		t := c.cfg.Temperature
		req.Temperature = &t
	}
	if req.Timeout <= 0 {
		req.Timeout = c.cfg.Timeout(TaskQuestion)
	}
	return req
}

// Generate sends turns to the model selected by req and returns the first
// choice. Deadline failures return ErrProviderTimeout, any other transport
// or provider failure returns ErrProviderUnavailable, and a response without
// choices returns ErrEmptyResponse.
func (c *Client) Generate(ctx context.Context, req Request, turns []protocol.Turn) (*Response, error) {
	req = c.Resolve(req)
	start := time.Now()

	model, created, err := c.registry.Get(req.Provider, req.Model)
	if err != nil {
		if errors.Is(err, ErrUnknownProvider) {
			return nil, err
		}
		c.emitError(ctx, req, start, err)
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if created {
		c.observer.OnEvent(ctx, observability.NewEvent(EventModelCreated, observability.LevelVerbose, "llm.Client",
			map[string]any{"provider": string(req.Provider), "model": req.Model}))
	}

	c.observer.OnEvent(ctx, observability.NewEvent(EventGenerateStart, observability.LevelVerbose, "llm.Client",
		map[string]any{
			"provider": string(req.Provider),
			"model":    req.Model,
			"turns":    len(turns),
			"timeout":  req.Timeout,
		}))

	callCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	resp, err := model.GenerateContent(callCtx, Messages(turns), llms.WithTemperature(*req.Temperature))
	if err != nil {
		err = classify(callCtx, err)
		c.emitError(ctx, req, start, err)
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		c.emitError(ctx, req, start, ErrEmptyResponse)
		return nil, ErrEmptyResponse
	}

	out := &Response{
		Content:  resp.Choices[0].Content,
		Provider: req.Provider,
		Model:    req.Model,
		Duration: time.Since(start),
	}

	c.observer.OnEvent(ctx, observability.NewEvent(EventGenerateComplete, observability.LevelInfo, "llm.Client",
		map[string]any{
			"provider":                string(req.Provider),
			"model":                   req.Model,
			"response_length":         len(out.Content),
			observability.DurationKey: out.Duration,
		}))

	return out, nil
}

func (c *Client) emitError(ctx context.Context, req Request, start time.Time, err error) {
	c.observer.OnEvent(ctx, observability.NewEvent(EventGenerateError, observability.LevelError, "llm.Client",
		map[string]any{
			"provider":                string(req.Provider),
			"model":                   req.Model,
			"error":                   err,
			observability.DurationKey: time.Since(start),
		}))
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrProviderTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}

// Messages converts conversation turns to langchaingo message content.
func Messages(turns []protocol.Turn) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, llms.TextParts(chatType(t.Role), t.Content))
	}
	return msgs
}

func chatType(role protocol.Role) llms.ChatMessageType {
	switch role {
	case protocol.RoleSystem:
		return llms.ChatMessageTypeSystem
	case protocol.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
