package prompt

import (
	"strings"

	"github.com/tailored-agentic-units/coach/llm"
)

// Intent classifies a chat message for history windowing, retrieval and
// timeout selection.
type Intent string

const (
	IntentQuestion Intent = "question"
	IntentDraft    Intent = "draft"
	IntentSummary  Intent = "summary"
)

// Classify returns IntentSummary when msg mentions "summary" or
// "summarize", IntentDraft when it mentions "draft" together with "epic" or
// "feature", and IntentQuestion otherwise. Matching is case-insensitive.
func Classify(msg string) Intent {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "summary") || strings.Contains(lower, "summarize"):
		return IntentSummary
	case strings.Contains(lower, "draft") &&
		(strings.Contains(lower, "epic") || strings.Contains(lower, "feature")):
		return IntentDraft
	default:
		return IntentQuestion
	}
}

// HistoryWindow returns how many trailing turns accompany the request.
func (i Intent) HistoryWindow() int {
	switch i {
	case IntentSummary:
		return 0
	case IntentDraft:
		return 12
	default:
		return 10
	}
}

// Task returns the LLM timeout class for the intent.
func (i Intent) Task() llm.Task {
	if i == IntentQuestion {
		return llm.TaskQuestion
	}
	return llm.TaskDraft
}

// Retrieves reports whether the intent consults the knowledge index.
func (i Intent) Retrieves() bool {
	return i != IntentSummary
}
