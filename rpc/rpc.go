// Package rpc serves a subset of the coach over Connect. Messages are
// google.protobuf.Struct values carrying the same JSON fields as the HTTP
// API, so any Connect, gRPC or gRPC-Web client can call the coach without
// generated stubs.
package rpc

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/coach/coach"
	"github.com/tailored-agentic-units/coach/knowledge"
	"github.com/tailored-agentic-units/coach/server"
)

// ServiceName is the fully-qualified Connect service name.
const ServiceName = "coach.v1.CoachService"

// Procedure paths.
const (
	ChatProcedure    = "/" + ServiceName + "/Chat"
	OutlineProcedure = "/" + ServiceName + "/Outline"
	ClearProcedure   = "/" + ServiceName + "/Clear"
	HistoryProcedure = "/" + ServiceName + "/History"
	SearchProcedure  = "/" + ServiceName + "/Search"
)

// Service is the coach surface exposed over Connect. *coach.Coach
// implements it.
type Service interface {
	Chat(ctx context.Context, req coach.ChatRequest) (*coach.ChatResponse, error)
	Outline(ctx context.Context, sessionID, typ string) (*coach.OutlineResponse, error)
	Clear(ctx context.Context, sessionID, scope string) (*coach.ClearResponse, error)
	History(ctx context.Context, sessionID string) (*coach.HistoryResponse, error)
	Search(ctx context.Context, query string, k int) ([]knowledge.Snippet, error)
}

// ScopedRequest addresses one draft kind or clear scope of a session.
type ScopedRequest struct {
	SessionID string `json:"sessionId"`
	Type      string `json:"type"`
}

// HistoryRequest names a live session.
type HistoryRequest struct {
	SessionID string `json:"sessionId"`
}

// SearchRequest is a knowledge base query. Zero K uses the configured
// default.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// SearchResponse holds the snippets matching a SearchRequest.
type SearchResponse struct {
	Results []knowledge.Snippet `json:"results"`
}

// NewHandler returns the path prefix and handler serving svc. Mount it on
// the HTTP server under the prefix.
func NewHandler(svc Service, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()

	mux.Handle(ChatProcedure, unary(ChatProcedure, svc.Chat, opts...))
	mux.Handle(OutlineProcedure, unary(OutlineProcedure, func(ctx context.Context, req ScopedRequest) (*coach.OutlineResponse, error) {
		return svc.Outline(ctx, req.SessionID, req.Type)
	}, opts...))
	mux.Handle(ClearProcedure, unary(ClearProcedure, func(ctx context.Context, req ScopedRequest) (*coach.ClearResponse, error) {
		return svc.Clear(ctx, req.SessionID, req.Type)
	}, opts...))
	mux.Handle(HistoryProcedure, unary(HistoryProcedure, func(ctx context.Context, req HistoryRequest) (*coach.HistoryResponse, error) {
		return svc.History(ctx, req.SessionID)
	}, opts...))
	mux.Handle(SearchProcedure, unary(SearchProcedure, func(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
		results, err := svc.Search(ctx, req.Query, req.K)
		if err != nil {
			return nil, err
		}
		if results == nil {
			results = []knowledge.Snippet{}
		}
		return &SearchResponse{Results: results}, nil
	}, opts...))

	return "/" + ServiceName + "/", mux
}

func unary[Req, Res any](procedure string, fn func(context.Context, Req) (Res, error), opts ...connect.HandlerOption) *connect.Handler {
	return connect.NewUnaryHandler(procedure,
		func(ctx context.Context, r *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			var in Req
			if err := fromStruct(r.Msg, &in); err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, err)
			}

			out, err := fn(ctx, in)
			if err != nil {
				return nil, connect.NewError(Code(err), err)
			}

			msg, err := toStruct(out)
			if err != nil {
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			return connect.NewResponse(msg), nil
		},
		opts...,
	)
}

// Code maps a coach error to its Connect code, following the HTTP status
// the JSON API reports for it.
func Code(err error) connect.Code {
	switch server.Status(err) {
	case http.StatusBadRequest:
		return connect.CodeInvalidArgument
	case http.StatusNotFound:
		return connect.CodeNotFound
	case http.StatusGatewayTimeout:
		return connect.CodeDeadlineExceeded
	case http.StatusBadGateway:
		return connect.CodeUnavailable
	case http.StatusServiceUnavailable:
		return connect.CodeFailedPrecondition
	default:
		return connect.CodeInternal
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func fromStruct(msg *structpb.Struct, v any) error {
	if msg == nil {
		return nil
	}
	data, err := protojson.Marshal(msg)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
