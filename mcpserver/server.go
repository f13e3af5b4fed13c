// Package mcpserver exposes the coach as Model Context Protocol tools so
// MCP-capable assistants can hold coaching conversations, read drafts and
// query the knowledge base.
package mcpserver

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tailored-agentic-units/coach/coach"
	"github.com/tailored-agentic-units/coach/knowledge"
	"github.com/tailored-agentic-units/coach/session"
)

// Service is the coach surface the MCP tools call. *coach.Coach
// implements it.
type Service interface {
	Chat(ctx context.Context, req coach.ChatRequest) (*coach.ChatResponse, error)
	Outline(ctx context.Context, sessionID, typ string) (*coach.OutlineResponse, error)
	Clear(ctx context.Context, sessionID, scope string) (*coach.ClearResponse, error)
	FillTemplate(ctx context.Context, req coach.FillTemplateRequest) (*coach.FillTemplateResponse, error)
	ListSessions(ctx context.Context) ([]session.FileInfo, error)
	Search(ctx context.Context, query string, k int) ([]knowledge.Snippet, error)
}

// New creates an MCP server with every coach tool registered.
func New(svc Service, version string) *mcp.Server {
	t := &Tools{svc: svc}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "discovery-coach",
		Version: version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "coach_chat",
		Description: "Send a message to the Discovery Coach. Omit session_id to start a new session; reuse the returned id to continue it",
	}, t.Chat)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "coach_outline",
		Description: "Show the active Epic, Feature or PI Objectives draft of a session",
	}, t.Outline)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "coach_clear",
		Description: "Clear a draft (epic, feature, pi_objectives), the history, or everything (all) in a session",
	}, t.Clear)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "fill_template",
		Description: "Fill the Epic, Feature or User Story template from a session's conversation",
	}, t.FillTemplate)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List saved coaching sessions, newest first",
	}, t.ListSessions)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the agile knowledge base for passages relevant to a query",
	}, t.SearchKnowledge)

	return srv
}

// Handler serves srv over the streamable HTTP transport.
func Handler(srv *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil)
}
