package coach

import "github.com/tailored-agentic-units/coach/observability"

// Coach event types emitted by the service operations.
const (
	EventChatStart         observability.EventType = "coach.chat.start"
	EventChatComplete      observability.EventType = "coach.chat.complete"
	EventDraftDetected     observability.EventType = "coach.draft.detected"
	EventEvaluateComplete  observability.EventType = "coach.evaluate.complete"
	EventContextCleared    observability.EventType = "coach.context.cleared"
	EventSessionSaved      observability.EventType = "coach.session.saved"
	EventSessionLoaded     observability.EventType = "coach.session.loaded"
	EventSessionDeleted    observability.EventType = "coach.session.deleted"
	EventTemplateFilled    observability.EventType = "coach.template.filled"
	EventExtractComplete   observability.EventType = "coach.extract.complete"
	EventRetrievalDisabled observability.EventType = "coach.retrieval.disabled"
	EventError             observability.EventType = "coach.error"
)
