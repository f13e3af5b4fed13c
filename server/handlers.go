package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tailored-agentic-units/coach/coach"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "healthy",
		"service": "Discovery Coach API",
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"metrics": s.svc.Metrics(),
		"runtime": s.svc.Runtime(),
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req coach.ChatRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.svc.Chat(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": resp.SessionID,
		"response":  resp.Response,
		"intent":    resp.Intent,
		"provider":  resp.Provider,
		"model":     resp.Model,
		"detected":  resp.Detected,
	})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req coach.EvaluateRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.svc.Evaluate(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"sessionId":     resp.SessionID,
		"response":      resp.Response,
		"activeContext": resp.Drafts,
	})
}

type scopedRequest struct {
	SessionID string `json:"sessionId"`
	Type      string `json:"type"`
}

func (s *Server) handleOutline(c *gin.Context) {
	var req scopedRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.svc.Outline(c.Request.Context(), req.SessionID, req.Type)
	if err != nil {
		fail(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"type":    resp.Type,
		"content": nil,
	}
	if resp.Content != "" {
		body["content"] = resp.Content
	}
	if resp.Message != "" {
		body["message"] = resp.Message
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleClear(c *gin.Context) {
	var req scopedRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.svc.Clear(c.Request.Context(), req.SessionID, req.Type)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"sessionId":     resp.SessionID,
		"message":       resp.Message,
		"activeContext": resp.Drafts,
	})
}

func (s *Server) handleKnowledgeSearch(c *gin.Context) {
	query := c.Query("q")
	if len(query) > maxQuerySize {
		fail(c, badRequest("query exceeds maximum size of 10KB"))
		return
	}
	if query == "" {
		fail(c, badRequest("query parameter required"))
		return
	}

	k, err := strconv.Atoi(c.DefaultQuery("k", "0"))
	if err != nil {
		fail(c, badRequest("k must be an integer"))
		return
	}

	results, err := s.svc.Search(c.Request.Context(), query, k)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleOllamaStatus(c *gin.Context) {
	status := s.svc.OllamaStatus(c.Request.Context())

	body := gin.H{
		"success": true,
		"running": status.Running,
		"baseUrl": status.BaseURL,
		"models":  status.Models,
	}
	if status.Error != "" {
		body["error"] = status.Error
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleOllamaModels(c *gin.Context) {
	models, err := s.svc.OllamaModels(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"models":  models,
	})
}

func (s *Server) handleFillTemplate(c *gin.Context) {
	var req coach.FillTemplateRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.svc.FillTemplate(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"template_type": resp.Type,
		"content":       resp.Content,
		"message":       resp.Message,
	})
}

func (s *Server) handleExtractFeatures(c *gin.Context) {
	s.extract(c, "features", s.svc.ExtractFeatures)
}

func (s *Server) handleExtractStories(c *gin.Context) {
	s.extract(c, "stories", s.svc.ExtractStories)
}

type extractFunc func(ctx context.Context, req coach.ExtractRequest) (*coach.ExtractResponse, error)

func (s *Server) extract(c *gin.Context, key string, fn extractFunc) {
	var req coach.ExtractRequest
	if !bind(c, &req) {
		return
	}

	resp, err := fn(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		key:       resp.Items,
		"count":   len(resp.Items),
	})
}
