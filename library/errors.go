package library

import "errors"

// Sentinel errors for template operations.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidType      = errors.New("invalid template type")
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrDisabled         = errors.New("template library disabled")
)
