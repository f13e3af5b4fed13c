package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/coach/coach"
	"github.com/tailored-agentic-units/coach/knowledge"
)

type unaryClient = connect.Client[structpb.Struct, structpb.Struct]

// Client calls a remote coach over Connect.
type Client struct {
	chat    *unaryClient
	outline *unaryClient
	clear   *unaryClient
	history *unaryClient
	search  *unaryClient
}

// NewClient creates a Client for the coach served at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	newClient := func(procedure string) *unaryClient {
		return connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+procedure, opts...)
	}

	return &Client{
		chat:    newClient(ChatProcedure),
		outline: newClient(OutlineProcedure),
		clear:   newClient(ClearProcedure),
		history: newClient(HistoryProcedure),
		search:  newClient(SearchProcedure),
	}
}

// Chat sends one user message.
func (c *Client) Chat(ctx context.Context, req coach.ChatRequest) (*coach.ChatResponse, error) {
	var out coach.ChatResponse
	if err := call(ctx, c.chat, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Outline returns the active draft of typ.
func (c *Client) Outline(ctx context.Context, sessionID, typ string) (*coach.OutlineResponse, error) {
	var out coach.OutlineResponse
	if err := call(ctx, c.outline, ScopedRequest{SessionID: sessionID, Type: typ}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Clear resets scope of a session.
func (c *Client) Clear(ctx context.Context, sessionID, scope string) (*coach.ClearResponse, error) {
	var out coach.ClearResponse
	if err := call(ctx, c.clear, ScopedRequest{SessionID: sessionID, Type: scope}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns the turns and drafts of a session.
func (c *Client) History(ctx context.Context, sessionID string) (*coach.HistoryResponse, error) {
	var out coach.HistoryResponse
	if err := call(ctx, c.history, HistoryRequest{SessionID: sessionID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search queries the knowledge base.
func (c *Client) Search(ctx context.Context, query string, k int) ([]knowledge.Snippet, error) {
	var out SearchResponse
	if err := call(ctx, c.search, SearchRequest{Query: query, K: k}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func call(ctx context.Context, client *unaryClient, in, out any) error {
	msg, err := toStruct(in)
	if err != nil {
		return err
	}

	resp, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return err
	}
	return fromStruct(resp.Msg, out)
}
