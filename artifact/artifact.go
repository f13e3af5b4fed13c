// Package artifact detects agile artifact drafts (Epics, Features,
// PI Objectives) in LLM replies by looking for their template section
// headers, and splits multi-artifact extraction output.
package artifact

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies an artifact type.
type Kind string

const (
	KindEpic         Kind = "epic"
	KindFeature      Kind = "feature"
	KindPIObjectives Kind = "pi_objectives"
	KindStory        Kind = "story"
)

// Label returns the human-readable name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindEpic:
		return "Epic"
	case KindFeature:
		return "Feature"
	case KindPIObjectives:
		return "PI Objectives"
	case KindStory:
		return "User Story"
	default:
		return string(k)
	}
}

// ParseKind accepts the kind names used by the chat UI.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "epic":
		return KindEpic, nil
	case "feature":
		return KindFeature, nil
	case "pi_objectives", "pi-objectives", "pi_objective", "pi-objective":
		return KindPIObjectives, nil
	case "story", "user_story", "user-story":
		return KindStory, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Draft is free text captured for one artifact kind.
type Draft struct {
	Kind       Kind      `json:"kind"`
	Content    string    `json:"content"`
	DetectedAt time.Time `json:"detectedAt"`
}

// NewDraft creates a Draft stamped with the current UTC time.
func NewDraft(kind Kind, content string) Draft {
	return Draft{Kind: kind, Content: content, DetectedAt: time.Now().UTC()}
}

type rule struct {
	kind     Kind
	anyOf    []string
	andAnyOf []string
}

// Rules are evaluated in order; the first match wins.
var rules = []rule{
	{
		kind:     KindEpic,
		anyOf:    []string{"EPIC NAME"},
		andAnyOf: []string{"EPIC HYPOTHESIS STATEMENT", "BUSINESS CONTEXT"},
	},
	{
		kind:     KindFeature,
		anyOf:    []string{"FEATURE NAME", "Feature Name:"},
		andAnyOf: []string{"USER STORY", "ACCEPTANCE CRITERIA"},
	},
	{
		kind:  KindPIObjectives,
		anyOf: []string{"PI OBJECTIVE", "Program Increment Objective"},
	},
}

func (r rule) match(text string) bool {
	if !containsAny(text, r.anyOf) {
		return false
	}
	return len(r.andAnyOf) == 0 || containsAny(text, r.andAnyOf)
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// Detect returns the artifact draft contained in reply, if any. The whole
// reply becomes the draft content.
func Detect(reply string) (Draft, bool) {
	for _, r := range rules {
		if r.match(reply) {
			return NewDraft(r.kind, reply), true
		}
	}
	return Draft{}, false
}
