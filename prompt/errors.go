package prompt

import "errors"

// Sentinel errors for prompt operations.
var (
	ErrPromptNotFound = errors.New("prompt file not found")
	ErrEmptyMessage   = errors.New("empty message")
)
