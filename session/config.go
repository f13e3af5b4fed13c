package session

import (
	"path/filepath"

	"github.com/tailored-agentic-units/coach/store"
)

// Persistence backends.
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// boltFile is the database name used by the bolt backend inside Dir.
const boltFile = "sessions.bolt"

// Config holds session persistence parameters.
type Config struct {
	// Dir is the directory session files are saved to.
	Dir string `json:"dir" yaml:"dir"`
	// Backend selects one JSON file per session ("file") or a single bbolt
	// database in Dir ("bolt").
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{Dir: "sessions", Backend: BackendFile}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Dir != "" {
		c.Dir = source.Dir
	}
	if source.Backend != "" {
		c.Backend = source.Backend
	}
}

// New creates a session Store from configuration. Unknown backends fall
// back to files.
func New(cfg *Config) *Store {
	if cfg.Backend == BackendBolt {
		return NewStore(store.NewBoltStore(filepath.Join(cfg.Dir, boltFile)))
	}
	return NewStore(store.NewFileStore(cfg.Dir))
}
