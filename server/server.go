// Package server exposes the coach over a JSON HTTP API built on gin.
// Every response carries a "success" flag; failures add an "error" message
// and an HTTP status derived from the error.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tailored-agentic-units/coach/coach"
	"github.com/tailored-agentic-units/coach/knowledge"
	"github.com/tailored-agentic-units/coach/library"
	"github.com/tailored-agentic-units/coach/llm"
	"github.com/tailored-agentic-units/coach/observability"
	"github.com/tailored-agentic-units/coach/prompt"
	"github.com/tailored-agentic-units/coach/session"
)

const (
	maxBodySize     = 1 << 20  // 1MB
	maxQuerySize    = 10 << 10 // 10KB
	shutdownTimeout = 10 * time.Second
)

// Service is the coach surface the HTTP API serves. *coach.Coach
// implements it.
type Service interface {
	Chat(ctx context.Context, req coach.ChatRequest) (*coach.ChatResponse, error)
	Evaluate(ctx context.Context, req coach.EvaluateRequest) (*coach.EvaluateResponse, error)
	Outline(ctx context.Context, sessionID, typ string) (*coach.OutlineResponse, error)
	Clear(ctx context.Context, sessionID, scope string) (*coach.ClearResponse, error)
	History(ctx context.Context, sessionID string) (*coach.HistoryResponse, error)
	EndSession(ctx context.Context, sessionID string) error

	SaveSession(ctx context.Context, req coach.SaveSessionRequest) (*coach.SaveSessionResponse, error)
	LoadSession(ctx context.Context, filename string) (*coach.LoadSessionResponse, error)
	ListSessions(ctx context.Context) ([]session.FileInfo, error)
	DeleteSessions(ctx context.Context, names ...string) session.DeleteResult
	DeleteSession(ctx context.Context, name string) error

	FillTemplate(ctx context.Context, req coach.FillTemplateRequest) (*coach.FillTemplateResponse, error)
	ExtractFeatures(ctx context.Context, req coach.ExtractRequest) (*coach.ExtractResponse, error)
	ExtractStories(ctx context.Context, req coach.ExtractRequest) (*coach.ExtractResponse, error)
	Search(ctx context.Context, query string, k int) ([]knowledge.Snippet, error)

	Prompts() *prompt.Library
	Templates() *library.Store
	Metrics() observability.Snapshot
	Runtime() coach.Runtime
	OllamaStatus(ctx context.Context) llm.OllamaStatus
	OllamaModels(ctx context.Context) ([]string, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMount serves h for every method under path. Use a trailing
// "*name" wildcard to mount a handler tree.
func WithMount(path string, h http.Handler) Option {
	return func(s *Server) { s.mounts = append(s.mounts, mount{path: path, handler: h}) }
}

// WithAllowedOrigins restricts CORS to origins. The default allows any
// origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

type mount struct {
	path    string
	handler http.Handler
}

// Server is the coach HTTP server.
type Server struct {
	svc     Service
	router  *gin.Engine
	logger  *slog.Logger
	mounts  []mount
	origins []string
}

// New creates a Server for svc and registers its routes.
func New(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger), cors(s.origins))
	s.router = router

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/metrics", s.handleMetrics)

		api.POST("/chat", s.handleChat)
		api.POST("/evaluate", s.handleEvaluate)
		api.POST("/outline", s.handleOutline)
		api.POST("/clear", s.handleClear)

		api.GET("/session/list", s.handleSessionList)
		api.GET("/session/:id/history", s.handleSessionHistory)
		api.POST("/session/save", s.handleSessionSave)
		api.POST("/session/load", s.handleSessionLoad)
		api.POST("/session/delete", s.handleSessionDeleteMany)
		api.POST("/session/end", s.handleSessionEnd)
		api.DELETE("/session/:name", s.handleSessionDelete)

		api.GET("/prompts", s.handlePromptList)
		api.GET("/prompts/:name", s.handlePromptContent)
		api.GET("/prompts/:name/version", s.handlePromptVersion)

		api.GET("/knowledge/search", s.handleKnowledgeSearch)

		api.GET("/ollama/status", s.handleOllamaStatus)
		api.GET("/ollama/models", s.handleOllamaModels)

		api.POST("/fill-template", s.handleFillTemplate)
		api.POST("/extract-features", s.handleExtractFeatures)
		api.POST("/extract-stories", s.handleExtractStories)

		api.POST("/template/save", s.handleTemplateSave)
		api.POST("/template/update", s.handleTemplateUpdate)
		api.POST("/template/load", s.handleTemplateLoad)
		api.POST("/template/delete", s.handleTemplateDelete)
		api.POST("/template/export", s.handleTemplateExport)
		api.GET("/template/list/:type", s.handleTemplateList)
	}

	for _, m := range s.mounts {
		router.Any(m.path, gin.WrapH(m.handler))
	}

	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("coach server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("coach server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
