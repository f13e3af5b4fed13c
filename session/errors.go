package session

import "errors"

// Sentinel errors for session operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidName     = errors.New("invalid session name")
	ErrDecodeFailed    = errors.New("session decode failed")
)
