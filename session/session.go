// Package session manages per-session conversation history and the
// artifact drafts detected in it, and persists sessions as JSON files.
package session

import (
	"github.com/tailored-agentic-units/coach/artifact"
	"github.com/tailored-agentic-units/coach/core/protocol"
)

// Session holds an ordered sequence of conversation turns plus at most one
// draft per artifact kind. Implementations must be safe for concurrent use.
type Session interface {
	// ID returns the unique session identifier.
	ID() string
	// Append adds turns to the end of the conversation history.
	Append(turns ...protocol.Turn)
	// History returns a defensive copy of the conversation history.
	History() []protocol.Turn
	// Window returns a copy of the last n turns. n <= 0 returns nil.
	Window(n int) []protocol.Turn
	// SetDraft stores d, replacing any draft of the same kind.
	SetDraft(d artifact.Draft)
	// Draft returns the draft stored for kind.
	Draft(kind artifact.Kind) (artifact.Draft, bool)
	// Drafts returns every stored draft ordered by kind.
	Drafts() []artifact.Draft
	// ClearDraft removes the draft stored for kind.
	ClearDraft(kind artifact.Kind)
	// Clear resets the conversation history. Drafts are kept.
	Clear()
	// Record snapshots the session for persistence.
	Record() Record
}
