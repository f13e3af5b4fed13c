// Package protocol defines the conversation types shared by the coach's
// context manager, prompt builder and LLM adapter.
package protocol

import (
	"strings"
	"time"
)

// Role identifies the sender of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole normalizes the role spellings used by the chat UI and by saved
// session files. "agent", "ai" and "coach" map to RoleAssistant; "human" maps
// to RoleUser. Unknown roles return false.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return RoleUser, true
	case "assistant", "agent", "ai", "coach":
		return RoleAssistant, true
	case "system":
		return RoleSystem, true
	default:
		return "", false
	}
}

// Turn is a single entry in a session's conversation history. Turns are
// immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a Turn stamped with the current UTC time.
//
// Example:
//
//	turn := protocol.NewTurn(protocol.RoleUser, "Help me draft an Epic")
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// Exchange returns the user/assistant turn pair recorded for one round trip.
func Exchange(prompt, reply string) []Turn {
	return []Turn{
		NewTurn(RoleUser, prompt),
		NewTurn(RoleAssistant, reply),
	}
}
