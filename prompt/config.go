package prompt

// Config holds prompt construction settings.
type Config struct {
	// Dir holds the prompt files served by the Library.
	Dir string `json:"dir" yaml:"dir"`
	// SystemFile is the Library key of the system prompt.
	SystemFile      string `json:"system_file,omitempty" yaml:"system_file,omitempty"`
	MaxContextChars int    `json:"max_context_chars,omitempty" yaml:"max_context_chars,omitempty"`
	TopK            int    `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

// DefaultConfig returns the default prompt configuration.
func DefaultConfig() Config {
	return Config{
		Dir:             "prompts",
		SystemFile:      "system_prompt.txt",
		MaxContextChars: 12000,
		TopK:            6,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Dir != "" {
		c.Dir = source.Dir
	}
	if source.SystemFile != "" {
		c.SystemFile = source.SystemFile
	}
	if source.MaxContextChars > 0 {
		c.MaxContextChars = source.MaxContextChars
	}
	if source.TopK > 0 {
		c.TopK = source.TopK
	}
}
