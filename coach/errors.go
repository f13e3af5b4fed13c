package coach

import "errors"

// Sentinel errors for coach operations. Errors from the session, llm,
// prompt and library packages are returned wrapped and match their own
// sentinels with errors.Is.
var (
	ErrEmptyMessage      = errors.New("message is required")
	ErrEmptyContent      = errors.New("content is required")
	ErrInvalidKind       = errors.New("invalid artifact type")
	ErrInvalidScope      = errors.New("invalid clear scope")
	ErrTemplateMissing   = errors.New("template file not found")
	ErrRetrievalDisabled = errors.New("knowledge retrieval is not configured")
)
