package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handlePromptList(c *gin.Context) {
	files, err := s.svc.Prompts().List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"prompts": files,
		"count":   len(files),
	})
}

func (s *Server) handlePromptContent(c *gin.Context) {
	name := c.Param("name")
	content, err := s.svc.Prompts().Content(c.Request.Context(), name)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"name":    name,
		"content": content,
	})
}

func (s *Server) handlePromptVersion(c *gin.Context) {
	version, err := s.svc.Prompts().Version(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"version": version,
	})
}
