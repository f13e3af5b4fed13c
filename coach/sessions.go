package coach

import (
	"context"
	"errors"
	"fmt"

	"github.com/tailored-agentic-units/coach/artifact"
	"github.com/tailored-agentic-units/coach/core/protocol"
	"github.com/tailored-agentic-units/coach/library"
	"github.com/tailored-agentic-units/coach/observability"
	"github.com/tailored-agentic-units/coach/session"
)

// SaveSessionRequest selects the session to save and carries the state
// only the browser holds. The live session's drafts take precedence over
// ActiveEpic and ActiveFeature; a non-empty ConversationHistory replaces
// the live history in the file.
type SaveSessionRequest struct {
	SessionID           string          `json:"sessionId,omitempty"`
	Name                string          `json:"name,omitempty"`
	ActiveEpic          string          `json:"activeEpic,omitempty"`
	ActiveFeature       string          `json:"activeFeature,omitempty"`
	ActiveEpicID        *int64          `json:"activeEpicId,omitempty"`
	ActiveFeatureID     *int64          `json:"activeFeatureId,omitempty"`
	ConversationHistory []protocol.Turn `json:"conversationHistory,omitempty"`
	Messages            string          `json:"messages,omitempty"`
}

// SaveSessionResponse names the file written.
type SaveSessionResponse struct {
	SessionID string `json:"sessionId,omitempty"`
	Filename  string `json:"filename"`
	Message   string `json:"message"`
}

// SaveSession writes a session file. Without a SessionID only the request's
// own state is saved. An empty Name yields a timestamped file name.
func (c *Coach) SaveSession(ctx context.Context, req SaveSessionRequest) (*SaveSessionResponse, error) {
	var rec session.Record
	if req.SessionID != "" {
		s, err := c.sessions.Get(req.SessionID)
		if err != nil {
			return nil, err
		}
		rec = s.Record()
	} else {
		rec = session.NewMemorySession().Record()
		rec.ID = ""
	}

	if rec.ActiveEpic == "" && req.ActiveEpic != "" {
		rec.Drafts = append(rec.Drafts, artifact.NewDraft(artifact.KindEpic, req.ActiveEpic))
	}
	if rec.ActiveFeature == "" && req.ActiveFeature != "" {
		rec.Drafts = append(rec.Drafts, artifact.NewDraft(artifact.KindFeature, req.ActiveFeature))
	}
	if len(req.ConversationHistory) > 0 {
		rec.ConversationHistory = req.ConversationHistory
	}
	rec.ActiveEpicID = req.ActiveEpicID
	rec.ActiveFeatureID = req.ActiveFeatureID
	rec.Messages = req.Messages

	filename, err := c.saved.Save(ctx, req.Name, rec)
	if err != nil {
		return nil, err
	}

	c.emit(ctx, EventSessionSaved, observability.LevelInfo, "coach.SaveSession", map[string]any{
		"session_id": req.SessionID,
		"filename":   filename,
		"turns":      len(rec.ConversationHistory),
	})

	return &SaveSessionResponse{
		SessionID: req.SessionID,
		Filename:  filename,
		Message:   fmt.Sprintf("Session saved to %s", filename),
	}, nil
}

// LoadSessionResponse is a restored session and the library templates its
// file refers to.
type LoadSessionResponse struct {
	SessionID       string            `json:"sessionId"`
	Filename        string            `json:"filename"`
	Session         session.Record    `json:"session"`
	EpicTemplate    *library.Template `json:"epicTemplate"`
	FeatureTemplate *library.Template `json:"featureTemplate"`
	Message         string            `json:"message"`
}

// LoadSession reads a session file and makes it live again. Templates
// referenced by id are attached when the library is enabled and still holds
// them.
func (c *Coach) LoadSession(ctx context.Context, filename string) (*LoadSessionResponse, error) {
	rec, err := c.saved.Load(ctx, filename)
	if err != nil {
		return nil, err
	}

	s := c.sessions.Restore(rec)

	out := &LoadSessionResponse{
		SessionID: s.ID(),
		Filename:  filename,
		Session:   rec,
		Message:   fmt.Sprintf("Session loaded from %s", filename),
	}

	if out.EpicTemplate, err = c.linkedTemplate(ctx, rec.ActiveEpicID); err != nil {
		return nil, err
	}
	if out.FeatureTemplate, err = c.linkedTemplate(ctx, rec.ActiveFeatureID); err != nil {
		return nil, err
	}

	c.emit(ctx, EventSessionLoaded, observability.LevelInfo, "coach.LoadSession", map[string]any{
		"session_id": s.ID(),
		"filename":   filename,
		"turns":      len(s.History()),
	})

	return out, nil
}

func (c *Coach) linkedTemplate(ctx context.Context, id *int64) (*library.Template, error) {
	if id == nil || !c.library.Enabled() {
		return nil, nil
	}
	t, err := c.library.Get(ctx, *id)
	if err != nil {
		if errors.Is(err, library.ErrTemplateNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ListSessions returns the saved session files, newest first.
func (c *Coach) ListSessions(ctx context.Context) ([]session.FileInfo, error) {
	return c.saved.List(ctx)
}

// DeleteSessions removes each named session file, reporting failures per
// name.
func (c *Coach) DeleteSessions(ctx context.Context, names ...string) session.DeleteResult {
	result := c.saved.DeleteMany(ctx, names...)
	c.emit(ctx, EventSessionDeleted, observability.LevelInfo, "coach.DeleteSessions", map[string]any{
		"deleted": len(result.Deleted),
		"errors":  len(result.Errors),
	})
	return result
}

// DeleteSession removes a single session file. A missing file returns
// session.ErrSessionNotFound.
func (c *Coach) DeleteSession(ctx context.Context, name string) error {
	if err := c.saved.Delete(ctx, name); err != nil {
		return err
	}
	c.emit(ctx, EventSessionDeleted, observability.LevelInfo, "coach.DeleteSession", map[string]any{
		"filename": name,
	})
	return nil
}
