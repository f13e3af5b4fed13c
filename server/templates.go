package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tailored-agentic-units/coach/library"
)

// templateRequest is the body shared by the template library routes.
// Artifact fields the browser sends alongside the content are kept as
// metadata.
type templateRequest struct {
	TemplateID   int64          `json:"template_id"`
	TemplateType string         `json:"template_type"`
	Name         string         `json:"name"`
	Content      string         `json:"content"`
	EpicID       *int64         `json:"epic_id"`
	Tags         []string       `json:"tags"`
	Metadata     map[string]any `json:"metadata"`
	ExportAll    bool           `json:"export_all"`

	Hypothesis         string `json:"epic_hypothesis_statement"`
	BusinessOutcome    string `json:"business_outcome"`
	LeadingIndicators  string `json:"leading_indicators"`
	BenefitHypothesis  string `json:"benefit_hypothesis"`
	AcceptanceCriteria string `json:"acceptance_criteria"`
	WSJF               string `json:"wsjf"`
	Description        string `json:"description"`
}

func (r templateRequest) metadata() map[string]any {
	meta := make(map[string]any, len(r.Metadata)+7)
	for k, v := range r.Metadata {
		meta[k] = v
	}
	for k, v := range map[string]string{
		"epic_hypothesis_statement": r.Hypothesis,
		"business_outcome":          r.BusinessOutcome,
		"leading_indicators":        r.LeadingIndicators,
		"benefit_hypothesis":        r.BenefitHypothesis,
		"acceptance_criteria":       r.AcceptanceCriteria,
		"wsjf":                      r.WSJF,
		"description":               r.Description,
	} {
		if v != "" {
			meta[k] = v
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func (r templateRequest) template() library.Template {
	return library.Template{
		ID:       r.TemplateID,
		Type:     library.Type(r.TemplateType),
		Name:     r.Name,
		Content:  r.Content,
		ParentID: r.EpicID,
		Tags:     r.Tags,
		Metadata: r.metadata(),
	}
}

// typed returns the template with id when it has typ. A type mismatch is
// reported as not found.
func (s *Server) typed(c *gin.Context, id int64, typ string) (library.Template, error) {
	want, err := library.ParseType(typ)
	if err != nil {
		return library.Template{}, err
	}

	t, err := s.svc.Templates().Get(c.Request.Context(), id)
	if err != nil {
		return library.Template{}, err
	}
	if t.Type != want {
		return library.Template{}, fmt.Errorf("%w: %d is not a %s", library.ErrTemplateNotFound, id, want)
	}
	return t, nil
}

func (s *Server) handleTemplateSave(c *gin.Context) {
	var req templateRequest
	if !bind(c, &req) {
		return
	}

	t, err := s.svc.Templates().Save(c.Request.Context(), req.template())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"template_id": t.ID,
		"template":    t,
		"message":     fmt.Sprintf("%s template saved", t.Type),
	})
}

func (s *Server) handleTemplateUpdate(c *gin.Context) {
	var req templateRequest
	if !bind(c, &req) {
		return
	}
	if req.TemplateID == 0 {
		fail(c, badRequest("template_id is required"))
		return
	}

	ctx := c.Request.Context()
	t, err := s.svc.Templates().Get(ctx, req.TemplateID)
	if err != nil {
		fail(c, err)
		return
	}

	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Content != "" {
		t.Content = req.Content
	}
	if req.EpicID != nil {
		t.ParentID = req.EpicID
	}
	if req.Tags != nil {
		t.Tags = req.Tags
	}
	if meta := req.metadata(); meta != nil {
		if t.Metadata == nil {
			t.Metadata = make(map[string]any, len(meta))
		}
		for k, v := range meta {
			t.Metadata[k] = v
		}
	}

	t, err = s.svc.Templates().Update(ctx, t)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"template": t,
		"message":  "Template updated",
	})
}

func (s *Server) handleTemplateLoad(c *gin.Context) {
	var req templateRequest
	if !bind(c, &req) {
		return
	}

	t, err := s.typed(c, req.TemplateID, req.TemplateType)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"template": t,
	})
}

func (s *Server) handleTemplateDelete(c *gin.Context) {
	var req templateRequest
	if !bind(c, &req) {
		return
	}

	t, err := s.typed(c, req.TemplateID, req.TemplateType)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.svc.Templates().Delete(c.Request.Context(), t.ID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Deleted %s template %d", t.Type, t.ID),
	})
}

func (s *Server) handleTemplateExport(c *gin.Context) {
	var req templateRequest
	if !bind(c, &req) {
		return
	}

	if req.ExportAll {
		typ, err := library.ParseType(req.TemplateType)
		if err != nil {
			fail(c, err)
			return
		}
		templates, err := s.svc.Templates().Export(c.Request.Context(), typ)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"templates": templates,
			"count":     len(templates),
		})
		return
	}

	if req.TemplateID == 0 {
		fail(c, badRequest("template_id is required unless export_all is set"))
		return
	}
	t, err := s.typed(c, req.TemplateID, req.TemplateType)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"templates": []library.Template{t},
		"count":     1,
	})
}

func (s *Server) handleTemplateList(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		fail(c, err)
		return
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		fail(c, err)
		return
	}

	templates, err := s.svc.Templates().List(c.Request.Context(), library.ListOptions{
		Type:   library.Type(c.Param("type")),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		fail(c, err)
		return
	}
	if templates == nil {
		templates = []library.Template{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"templates": templates,
		"count":     len(templates),
	})
}

func intQuery(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("%s must be an integer", key)
	}
	return n, nil
}
