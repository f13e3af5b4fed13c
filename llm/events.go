package llm

import "github.com/tailored-agentic-units/coach/observability"

// LLM event types.
const (
	EventGenerateStart    observability.EventType = "llm.generate.start"
	EventGenerateComplete observability.EventType = "llm.generate.complete"
	EventGenerateError    observability.EventType = "llm.generate.error"
	EventModelCreated     observability.EventType = "llm.model.created"
)
