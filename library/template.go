// Package library stores filled Epic, Feature and User Story templates in
// SQLite so drafts can be reloaded across sessions.
package library

import (
	"fmt"
	"strings"
	"time"
)

// Type is a template type.
type Type string

const (
	TypeEpic    Type = "epic"
	TypeFeature Type = "feature"
	TypeStory   Type = "story"
)

// ParseType accepts a template type name in any case.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "epic":
		return TypeEpic, nil
	case "feature":
		return TypeFeature, nil
	case "story", "user_story", "user-story":
		return TypeStory, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Template is a saved artifact draft.
type Template struct {
	ID        int64          `json:"id"`
	Type      Type           `json:"type"`
	Name      string         `json:"name"`
	Content   string         `json:"content,omitempty"`
	ParentID  *int64         `json:"parentId,omitempty"`
	Tags      []string       `json:"tags"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ListOptions filters List. Zero Limit uses 100.
type ListOptions struct {
	Type   Type
	Search string
	Limit  int
	Offset int
}
