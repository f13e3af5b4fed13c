package prompt

import "github.com/tailored-agentic-units/coach/observability"

// Prompt event types.
const (
	EventBuild           observability.EventType = "prompt.build"
	EventRetrieveError   observability.EventType = "prompt.retrieve.error"
	EventContextTruncate observability.EventType = "prompt.context.truncate"
	EventSystemMissing   observability.EventType = "prompt.system.missing"
)
