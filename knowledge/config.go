package knowledge

// Config holds knowledge index settings.
type Config struct {
	// Dir holds the .txt and .md source documents.
	Dir string `json:"dir" yaml:"dir"`
	// DBPath is the SQLite file holding chunks and vectors.
	DBPath       string `json:"db_path" yaml:"db_path"`
	ChunkSize    int    `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty" yaml:"chunk_overlap,omitempty"`
	TopK         int    `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	BatchSize    int    `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	// Workers bounds concurrent embedding batches. Zero sizes the pool
	// from the CPU count.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// DefaultConfig returns the default knowledge index configuration.
func DefaultConfig() Config {
	return Config{
		Dir:          "knowledge_base",
		DBPath:       "data/knowledge.db",
		ChunkSize:    1000,
		ChunkOverlap: 200,
		TopK:         6,
		BatchSize:    32,
		Workers:      4,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Dir != "" {
		c.Dir = source.Dir
	}
	if source.DBPath != "" {
		c.DBPath = source.DBPath
	}
	if source.ChunkSize > 0 {
		c.ChunkSize = source.ChunkSize
	}
	if source.ChunkOverlap > 0 {
		c.ChunkOverlap = source.ChunkOverlap
	}
	if source.TopK > 0 {
		c.TopK = source.TopK
	}
	if source.BatchSize > 0 {
		c.BatchSize = source.BatchSize
	}
	if source.Workers > 0 {
		c.Workers = source.Workers
	}
}
