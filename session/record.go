package session

import (
	"time"

	"github.com/tailored-agentic-units/coach/artifact"
	"github.com/tailored-agentic-units/coach/core/protocol"
)

// Record is the JSON document written to a session file.
//
// ActiveEpic, ActiveFeature and PIObjectives mirror Drafts in the flat shape
// the browser UI reads. When a file carries no drafts (older saves), Restore
// rebuilds them from those fields.
type Record struct {
	ID                  string           `json:"id,omitempty"`
	Name                string           `json:"name,omitempty"`
	ConversationHistory []protocol.Turn  `json:"conversationHistory"`
	Drafts              []artifact.Draft `json:"drafts,omitempty"`
	ActiveEpic          string           `json:"activeEpic,omitempty"`
	ActiveFeature       string           `json:"activeFeature,omitempty"`
	PIObjectives        string           `json:"piObjectives,omitempty"`
	ActiveEpicID        *int64           `json:"activeEpicId,omitempty"`
	ActiveFeatureID     *int64           `json:"activeFeatureId,omitempty"`
	Messages            string           `json:"messages,omitempty"`
	Timestamp           time.Time        `json:"timestamp"`
}

func (r *Record) mirrorDrafts() {
	for _, d := range r.Drafts {
		switch d.Kind {
		case artifact.KindEpic:
			r.ActiveEpic = d.Content
		case artifact.KindFeature:
			r.ActiveFeature = d.Content
		case artifact.KindPIObjectives:
			r.PIObjectives = d.Content
		}
	}
}

// drafts returns the record's drafts, falling back to the flat fields.
func (r Record) drafts() []artifact.Draft {
	if len(r.Drafts) > 0 {
		return r.Drafts
	}

	var drafts []artifact.Draft
	flat := []struct {
		kind    artifact.Kind
		content string
	}{
		{artifact.KindEpic, r.ActiveEpic},
		{artifact.KindFeature, r.ActiveFeature},
		{artifact.KindPIObjectives, r.PIObjectives},
	}
	for _, f := range flat {
		if f.content != "" {
			drafts = append(drafts, artifact.Draft{Kind: f.kind, Content: f.content, DetectedAt: r.Timestamp})
		}
	}
	return drafts
}

// turns returns the record's history with roles normalized. Turns with
// unrecognized roles are dropped.
func (r Record) turns() []protocol.Turn {
	turns := make([]protocol.Turn, 0, len(r.ConversationHistory))
	for _, t := range r.ConversationHistory {
		role, ok := protocol.ParseRole(string(t.Role))
		if !ok {
			continue
		}
		t.Role = role
		turns = append(turns, t)
	}
	return turns
}
