package knowledge

import "errors"

// Sentinel errors for knowledge index operations.
var (
	ErrEmptyQuery      = errors.New("empty retrieval query")
	ErrEmbeddingFailed = errors.New("embedding failed")
	ErrDimensionSkew   = errors.New("embedding count does not match chunk count")
)
