package library

// Config holds template library settings.
type Config struct {
	// DBPath is the SQLite file. Empty disables the library.
	DBPath string `json:"db_path" yaml:"db_path"`
	// Disabled turns the library off regardless of DBPath.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// DefaultConfig returns the default template library configuration.
func DefaultConfig() Config {
	return Config{DBPath: "data/templates.db"}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.DBPath != "" {
		c.DBPath = source.DBPath
	}
	if source.Disabled {
		c.Disabled = true
	}
}
