package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tailored-agentic-units/coach/coach"
)

// Tools holds the coach behind the tool handlers.
type Tools struct {
	svc Service
}

// --- Input types ---

type ChatInput struct {
	SessionID     string `json:"session_id,omitempty" jsonschema:"Session to continue; empty starts a new one"`
	Message       string `json:"message" jsonschema:"Message to the coach"`
	ActiveEpic    string `json:"active_epic,omitempty" jsonschema:"Epic draft to set as context before answering"`
	ActiveFeature string `json:"active_feature,omitempty" jsonschema:"Feature draft to set as context before answering"`
}

type OutlineInput struct {
	SessionID string `json:"session_id" jsonschema:"Session id"`
	Type      string `json:"type" jsonschema:"Draft type: epic, feature or pi_objectives"`
}

type ClearInput struct {
	SessionID string `json:"session_id" jsonschema:"Session id"`
	Scope     string `json:"scope,omitempty" jsonschema:"epic, feature, pi_objectives, history or all (default all)"`
}

type FillTemplateInput struct {
	SessionID string `json:"session_id" jsonschema:"Session whose conversation fills the template"`
	Type      string `json:"template_type" jsonschema:"Template type: epic, feature or story"`
}

type ListSessionsInput struct{}

type SearchKnowledgeInput struct {
	Query string `json:"query" jsonschema:"Search text"`
	K     int    `json:"k,omitempty" jsonschema:"Number of passages to return (default from configuration)"`
}

// --- Handlers ---

func (t *Tools) Chat(ctx context.Context, _ *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, any, error) {
	resp, err := t.svc.Chat(ctx, coach.ChatRequest{
		SessionID:     input.SessionID,
		Message:       input.Message,
		ActiveEpic:    input.ActiveEpic,
		ActiveFeature: input.ActiveFeature,
	})
	if err != nil {
		return toolError("Chat failed: %v", err), nil, nil
	}
	return toolJSON(resp)
}

func (t *Tools) Outline(ctx context.Context, _ *mcp.CallToolRequest, input OutlineInput) (*mcp.CallToolResult, any, error) {
	resp, err := t.svc.Outline(ctx, input.SessionID, input.Type)
	if err != nil {
		return toolError("Outline failed: %v", err), nil, nil
	}
	if resp.Content == "" {
		return toolText(resp.Message), nil, nil
	}
	return toolText(resp.Content), nil, nil
}

func (t *Tools) Clear(ctx context.Context, _ *mcp.CallToolRequest, input ClearInput) (*mcp.CallToolResult, any, error) {
	resp, err := t.svc.Clear(ctx, input.SessionID, input.Scope)
	if err != nil {
		return toolError("Clear failed: %v", err), nil, nil
	}
	return toolText(resp.Message), nil, nil
}

func (t *Tools) FillTemplate(ctx context.Context, _ *mcp.CallToolRequest, input FillTemplateInput) (*mcp.CallToolResult, any, error) {
	resp, err := t.svc.FillTemplate(ctx, coach.FillTemplateRequest{
		SessionID: input.SessionID,
		Type:      input.Type,
	})
	if err != nil {
		return toolError("Template fill failed: %v", err), nil, nil
	}
	return toolText(resp.Content), nil, nil
}

func (t *Tools) ListSessions(ctx context.Context, _ *mcp.CallToolRequest, _ ListSessionsInput) (*mcp.CallToolResult, any, error) {
	files, err := t.svc.ListSessions(ctx)
	if err != nil {
		return toolError("Failed to list sessions: %v", err), nil, nil
	}
	return toolJSON(files)
}

func (t *Tools) SearchKnowledge(ctx context.Context, _ *mcp.CallToolRequest, input SearchKnowledgeInput) (*mcp.CallToolResult, any, error) {
	results, err := t.svc.Search(ctx, input.Query, input.K)
	if err != nil {
		return toolError("Search failed: %v", err), nil, nil
	}
	return toolJSON(results)
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return toolText(string(data)), nil, nil
}
