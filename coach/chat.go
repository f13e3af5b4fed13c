package coach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tailored-agentic-units/coach/artifact"
	"github.com/tailored-agentic-units/coach/core/protocol"
	"github.com/tailored-agentic-units/coach/llm"
	"github.com/tailored-agentic-units/coach/observability"
	"github.com/tailored-agentic-units/coach/prompt"
	"github.com/tailored-agentic-units/coach/session"
)

// Generation selects the provider, model and temperature of a request.
// Zero values fall back to the LLM configuration.
type Generation struct {
	Provider    string   `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

func (g Generation) request(timeout time.Duration) (llm.Request, error) {
	p, err := llm.ParseProvider(g.Provider)
	if err != nil {
		return llm.Request{}, err
	}
	return llm.Request{
		Provider:    p,
		Model:       g.Model,
		Temperature: g.Temperature,
		Timeout:     timeout,
	}, nil
}

// ChatRequest is one user message. An empty SessionID starts a new session,
// which is only kept when the model answers.
//
// ActiveEpic and ActiveFeature, when set, replace the session's drafts
// before the model is called. On an existing session they stay in place
// even if the call fails.
type ChatRequest struct {
	SessionID     string `json:"sessionId,omitempty"`
	Message       string `json:"message"`
	ActiveEpic    string `json:"activeEpic,omitempty"`
	ActiveFeature string `json:"activeFeature,omitempty"`
	Generation
}

// ChatResponse is the coach's reply.
type ChatResponse struct {
	SessionID string          `json:"sessionId"`
	Response  string          `json:"response"`
	Intent    prompt.Intent   `json:"intent"`
	Provider  llm.Provider    `json:"provider"`
	Model     string          `json:"model"`
	Detected  *artifact.Draft `json:"detected,omitempty"`
}

// Chat answers a message within its session. The raw message and the reply
// are appended to history, and a reply that carries an Epic, Feature or PI
// Objectives template replaces the stored draft of that kind.
func (c *Coach) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := llm.ParseProvider(req.Provider); err != nil {
		return nil, err
	}

	s, release, err := c.resolve(req.SessionID)
	if err != nil {
		return nil, err
	}

	if req.ActiveEpic != "" {
		s.SetDraft(artifact.NewDraft(artifact.KindEpic, req.ActiveEpic))
	}
	if req.ActiveFeature != "" {
		s.SetDraft(artifact.NewDraft(artifact.KindFeature, req.ActiveFeature))
	}
	epic, _ := s.Draft(artifact.KindEpic)
	feature, _ := s.Draft(artifact.KindFeature)

	p, err := c.builder.Build(ctx, prompt.Input{
		System:        c.prompts.System(ctx),
		Message:       req.Message,
		ActiveEpic:    epic.Content,
		ActiveFeature: feature.Content,
		History:       s.History(),
	})
	if err != nil {
		release()
		return nil, err
	}

	llmReq, err := req.request(c.cfg.LLM.Timeout(p.Intent.Task()))
	if err != nil {
		release()
		return nil, err
	}

	c.emit(ctx, EventChatStart, observability.LevelInfo, "coach.Chat", map[string]any{
		"session_id":     s.ID(),
		"intent":         string(p.Intent),
		"message_length": len(req.Message),
		"snippets":       len(p.Snippets),
	})

	start := time.Now()
	resp, err := c.generator.Generate(ctx, llmReq, p.Messages)
	if err != nil {
		c.fail(ctx, "coach.Chat", s.ID(), err)
		release()
		return nil, err
	}

	s.Append(protocol.Exchange(req.Message, resp.Content)...)

	out := &ChatResponse{
		SessionID: s.ID(),
		Response:  resp.Content,
		Intent:    p.Intent,
		Provider:  resp.Provider,
		Model:     resp.Model,
	}

	if d, ok := artifact.Detect(resp.Content); ok {
		s.SetDraft(d)
		out.Detected = &d
		c.emit(ctx, EventDraftDetected, observability.LevelInfo, "coach.Chat", map[string]any{
			"session_id": s.ID(),
			"kind":       string(d.Kind),
		})
	}

	c.emit(ctx, EventChatComplete, observability.LevelInfo, "coach.Chat", map[string]any{
		"session_id":              s.ID(),
		"intent":                  string(p.Intent),
		"response_length":         len(resp.Content),
		observability.DurationKey: time.Since(start),
	})

	return out, nil
}

// EvaluateRequest asks for an evaluation of an Epic or Feature.
type EvaluateRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	Generation
}

// EvaluateResponse is the evaluation and the session's drafts after it.
type EvaluateResponse struct {
	SessionID string           `json:"sessionId"`
	Response  string           `json:"response"`
	Drafts    []artifact.Draft `json:"drafts"`
}

// Evaluate stores content as the session's draft of the given type and asks
// the model to assess it against SAFe practice. Retrieved context is used
// but conversation history is not.
func (c *Coach) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}

	kind, err := evaluable(req.Type)
	if err != nil {
		return nil, err
	}

	llmReq, err := req.request(c.cfg.LLM.Timeout(prompt.IntentQuestion.Task()))
	if err != nil {
		return nil, err
	}

	s, release, err := c.resolve(req.SessionID)
	if err != nil {
		return nil, err
	}
	s.SetDraft(artifact.NewDraft(kind, req.Content))

	message := fmt.Sprintf("Please evaluate the following %s against SAFe best practices:\n\n%s", kind.Label(), req.Content)
	p, err := c.builder.Build(ctx, prompt.Input{
		System:    c.prompts.System(ctx),
		Message:   message,
		Intent:    prompt.IntentQuestion,
		NoHistory: true,
	})
	if err != nil {
		release()
		return nil, err
	}

	start := time.Now()
	resp, err := c.generator.Generate(ctx, llmReq, p.Messages)
	if err != nil {
		c.fail(ctx, "coach.Evaluate", s.ID(), err)
		release()
		return nil, err
	}

	s.Append(protocol.Exchange(message, resp.Content)...)

	c.emit(ctx, EventEvaluateComplete, observability.LevelInfo, "coach.Evaluate", map[string]any{
		"session_id":              s.ID(),
		"kind":                    string(kind),
		observability.DurationKey: time.Since(start),
	})

	return &EvaluateResponse{
		SessionID: s.ID(),
		Response:  resp.Content,
		Drafts:    s.Drafts(),
	}, nil
}

// resolve returns the session for id. When id is empty a session is
// created, and release discards it again for callers that fail before the
// id reaches the client.
func (c *Coach) resolve(id string) (session.Session, func(), error) {
	s, err := c.sessions.Resolve(id)
	if err != nil {
		return nil, nil, err
	}
	if id != "" {
		return s, func() {}, nil
	}
	return s, func() { _ = c.sessions.Delete(s.ID()) }, nil
}

func evaluable(typ string) (artifact.Kind, error) {
	kind, err := artifact.ParseKind(typ)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, typ)
	}
	if kind != artifact.KindEpic && kind != artifact.KindFeature {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, typ)
	}
	return kind, nil
}

// OutlineResponse carries the stored draft, or a message when there is none.
type OutlineResponse struct {
	SessionID string        `json:"sessionId,omitempty"`
	Type      artifact.Kind `json:"type"`
	Content   string        `json:"content"`
	Message   string        `json:"message,omitempty"`
}

// Outline returns the session's draft of the given kind. An empty sessionID
// reports that nothing is active.
func (c *Coach) Outline(ctx context.Context, sessionID, typ string) (*OutlineResponse, error) {
	kind, err := artifact.ParseKind(typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, typ)
	}

	out := &OutlineResponse{SessionID: sessionID, Type: kind}

	s, err := c.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		if d, ok := s.Draft(kind); ok {
			out.Content = d.Content
			return out, nil
		}
	}

	out.Message = noActive(kind)
	return out, nil
}

func noActive(kind artifact.Kind) string {
	switch kind {
	case artifact.KindEpic, artifact.KindFeature:
		return fmt.Sprintf("No active %s. Use \"Evaluate %s\" to load one.", kind.Label(), kind.Label())
	default:
		return fmt.Sprintf("No active %s.", kind.Label())
	}
}

// Scope selects what Clear resets.
type Scope string

const (
	ScopeEpic         Scope = "epic"
	ScopeFeature      Scope = "feature"
	ScopePIObjectives Scope = "pi_objectives"
	ScopeHistory      Scope = "history"
	ScopeAll          Scope = "all"
)

// ParseScope accepts a clear scope. An empty string selects ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch scope := Scope(strings.ToLower(strings.TrimSpace(s))); scope {
	case "":
		return ScopeAll, nil
	case ScopeEpic, ScopeFeature, ScopePIObjectives, ScopeHistory, ScopeAll:
		return scope, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

// ClearResponse reports what was cleared and the drafts that remain.
type ClearResponse struct {
	SessionID string           `json:"sessionId,omitempty"`
	Message   string           `json:"message"`
	Drafts    []artifact.Draft `json:"drafts"`
}

// Clear resets part of a session. ScopeAll removes every draft and the
// conversation history. An empty sessionID is a no-op.
func (c *Coach) Clear(ctx context.Context, sessionID, scope string) (*ClearResponse, error) {
	sc, err := ParseScope(scope)
	if err != nil {
		return nil, err
	}

	out := &ClearResponse{
		SessionID: sessionID,
		Message:   fmt.Sprintf("%s context cleared", capitalize(string(sc))),
		Drafts:    []artifact.Draft{},
	}

	s, err := c.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return out, nil
	}

	switch sc {
	case ScopeEpic:
		s.ClearDraft(artifact.KindEpic)
	case ScopeFeature:
		s.ClearDraft(artifact.KindFeature)
	case ScopePIObjectives:
		s.ClearDraft(artifact.KindPIObjectives)
	case ScopeHistory:
		s.Clear()
	case ScopeAll:
		for _, d := range s.Drafts() {
			s.ClearDraft(d.Kind)
		}
		s.Clear()
	}

	if drafts := s.Drafts(); drafts != nil {
		out.Drafts = drafts
	}

	c.emit(ctx, EventContextCleared, observability.LevelVerbose, "coach.Clear", map[string]any{
		"session_id": s.ID(),
		"scope":      string(sc),
	})

	return out, nil
}

// HistoryResponse is a session's conversation and drafts.
type HistoryResponse struct {
	SessionID string           `json:"sessionId"`
	Turns     []protocol.Turn  `json:"turns"`
	Drafts    []artifact.Draft `json:"drafts"`
}

// History returns the full conversation history of a live session.
func (c *Coach) History(ctx context.Context, sessionID string) (*HistoryResponse, error) {
	s, err := c.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	out := &HistoryResponse{
		SessionID: s.ID(),
		Turns:     s.History(),
		Drafts:    s.Drafts(),
	}
	if out.Turns == nil {
		out.Turns = []protocol.Turn{}
	}
	if out.Drafts == nil {
		out.Drafts = []artifact.Draft{}
	}
	return out, nil
}

// EndSession discards a live session.
func (c *Coach) EndSession(ctx context.Context, sessionID string) error {
	if err := c.sessions.Delete(sessionID); err != nil {
		return err
	}
	c.emit(ctx, EventSessionDeleted, observability.LevelVerbose, "coach.EndSession", map[string]any{
		"session_id": sessionID,
	})
	return nil
}

// lookup returns the live session for id, or nil for an empty id.
func (c *Coach) lookup(id string) (session.Session, error) {
	if id == "" {
		return nil, nil
	}
	return c.sessions.Get(id)
}

func (c *Coach) fail(ctx context.Context, source, sessionID string, err error) {
	c.emit(ctx, EventError, observability.LevelError, source, map[string]any{
		"session_id": sessionID,
		"error":      err,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
