package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tailored-agentic-units/coach/coach"
)

func (s *Server) handleSessionList(c *gin.Context) {
	files, err := s.svc.ListSessions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"sessions": files,
	})
}

func (s *Server) handleSessionHistory(c *gin.Context) {
	resp, err := s.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"sessionId":     resp.SessionID,
		"history":       resp.Turns,
		"activeContext": resp.Drafts,
	})
}

func (s *Server) handleSessionSave(c *gin.Context) {
	var req coach.SaveSessionRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.svc.SaveSession(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": resp.SessionID,
		"filename":  resp.Filename,
		"message":   resp.Message,
	})
}

func (s *Server) handleSessionLoad(c *gin.Context) {
	var req struct {
		Filename string `json:"filename"`
	}
	if !bind(c, &req) {
		return
	}
	if req.Filename == "" {
		fail(c, badRequest("filename is required"))
		return
	}

	resp, err := s.svc.LoadSession(c.Request.Context(), req.Filename)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"sessionId":       resp.SessionID,
		"session":         resp.Session,
		"epicTemplate":    resp.EpicTemplate,
		"featureTemplate": resp.FeatureTemplate,
		"message":         resp.Message,
	})
}

func (s *Server) handleSessionDeleteMany(c *gin.Context) {
	var req struct {
		Filenames []string `json:"filenames"`
	}
	if !bind(c, &req) {
		return
	}

	result := s.svc.DeleteSessions(c.Request.Context(), req.Filenames...)
	deleted, failed := len(result.Deleted), len(result.Errors)

	body := gin.H{
		"success": deleted > 0,
		"deleted": result.Deleted,
		"errors":  result.Errors,
	}
	switch {
	case deleted > 0 && failed == 0:
		body["message"] = fmt.Sprintf("Successfully deleted %d session(s)", deleted)
	case deleted > 0:
		body["message"] = fmt.Sprintf("Deleted %d session(s), %d error(s)", deleted, failed)
	default:
		body["message"] = "No sessions were deleted"
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleSessionDelete(c *gin.Context) {
	name := c.Param("name")
	if err := s.svc.DeleteSession(c.Request.Context(), name); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Deleted %s", name),
	})
}

func (s *Server) handleSessionEnd(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if !bind(c, &req) {
		return
	}

	if err := s.svc.EndSession(c.Request.Context(), req.SessionID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": req.SessionID,
	})
}
