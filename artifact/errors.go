package artifact

import "errors"

// ErrUnknownKind is returned by ParseKind for unsupported artifact names.
var ErrUnknownKind = errors.New("unknown artifact kind")
