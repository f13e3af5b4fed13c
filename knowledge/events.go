package knowledge

import "github.com/tailored-agentic-units/coach/observability"

// Knowledge index event types.
const (
	EventIngestStart    observability.EventType = "knowledge.ingest.start"
	EventIngestSkipped  observability.EventType = "knowledge.ingest.skipped"
	EventIngestComplete observability.EventType = "knowledge.ingest.complete"
	EventRetrieve       observability.EventType = "knowledge.retrieve"
)
