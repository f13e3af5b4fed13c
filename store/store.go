// Package store provides the flat file namespace shared by the session
// files, the prompt library and the knowledge-base documents. Keys are
// /-separated paths relative to a root directory.
package store

import (
	"context"
	"time"
)

// Store translates between a directory on disk and the key namespace.
// Implementations perform I/O on each call without caching; wrap a Store in
// a Cache for read-through access.
type Store interface {
	// List returns metadata for every visible key, sorted by key.
	List(ctx context.Context) ([]Info, error)
	// Load retrieves entries for the specified keys.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries, creating or overwriting as needed.
	Save(ctx context.Context, entries ...Entry) error
	// Delete removes entries. A missing key returns ErrKeyNotFound.
	Delete(ctx context.Context, keys ...string) error
}

// Entry is a key with its raw file content.
type Entry struct {
	Key   string
	Value []byte
}

// Info describes a stored key without its content.
type Info struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}
