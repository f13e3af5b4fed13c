// Package knowledge indexes the coaching knowledge base (plain text and
// markdown documents) into a SQLite-backed vector index and retrieves the
// chunks most similar to a query.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/tailored-agentic-units/coach/observability"
	"github.com/tailored-agentic-units/coach/store"
)

// Snippet is a retrieved chunk with its similarity score.
type Snippet struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// IngestReport summarizes an Ingest call.
type IngestReport struct {
	Documents int  `json:"documents"`
	Chunks    int  `json:"chunks"`
	Skipped   bool `json:"skipped"`
}

// Option configures an Index.
type Option func(*Index)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(ix *Index) { ix.observer = o }
}

// Index is the knowledge-base vector index.
type Index struct {
	cfg      Config
	db       *sql.DB
	vectors  *vectors
	embedder embeddings.Embedder
	splitter textsplitter.RecursiveCharacter
	observer observability.Observer
}

// Open opens (creating if needed) the SQLite index at cfg.DBPath and loads
// stored vectors into memory.
func Open(ctx context.Context, cfg *Config, embedder embeddings.Embedder, opts ...Option) (*Index, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("knowledge dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("knowledge open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("knowledge migrate: %w", err)
	}

	vecs, err := newVectors(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("knowledge load: %w", err)
	}

	ix := &Index{
		cfg:      *cfg,
		db:       db,
		vectors:  vecs,
		embedder: embedder,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		),
		observer: observability.NewSlogObserver(slog.Default()),
	}

	for _, opt := range opts {
		opt(ix)
	}

	return ix, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chunks (
			id      TEXT PRIMARY KEY,
			source  TEXT NOT NULL,
			content TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS vectors (
			item_id    TEXT PRIMARY KEY,
			embedding  BLOB NOT NULL,
			dimensions INTEGER NOT NULL
		);
	`)
	return err
}

// Close releases the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Count returns the number of indexed chunks.
func (ix *Index) Count() int {
	return ix.vectors.count()
}

// TopK returns the configured retrieval depth.
func (ix *Index) TopK() int {
	return ix.cfg.TopK
}

type pending struct {
	id      string
	source  string
	content string
}

// Ingest splits and embeds every .txt and .md document in docs. When the
// index already holds chunks and force is false nothing is done. A forced
// ingest replaces the whole index.
func (ix *Index) Ingest(ctx context.Context, docs store.Store, force bool) (IngestReport, error) {
	if n := ix.Count(); n > 0 && !force {
		ix.observer.OnEvent(ctx, observability.NewEvent(EventIngestSkipped, observability.LevelInfo, "knowledge.Index",
			map[string]any{"chunks": n}))
		return IngestReport{Chunks: n, Skipped: true}, nil
	}

	start := time.Now()
	ix.observer.OnEvent(ctx, observability.NewEvent(EventIngestStart, observability.LevelInfo, "knowledge.Index",
		map[string]any{"force": force}))

	infos, err := docs.List(ctx)
	if err != nil {
		return IngestReport{}, err
	}

	var (
		chunks []pending
		report IngestReport
	)
	for _, info := range infos {
		if !indexable(info.Key) {
			continue
		}

		entries, err := docs.Load(ctx, info.Key)
		if err != nil {
			return IngestReport{}, err
		}

		parts, err := ix.splitter.SplitText(string(entries[0].Value))
		if err != nil {
			return IngestReport{}, fmt.Errorf("split %s: %w", info.Key, err)
		}

		report.Documents++
		for i, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, pending{
				id:      fmt.Sprintf("%s#%04d", info.Key, i),
				source:  info.Key,
				content: part,
			})
		}
	}

	embedded, err := ix.embed(ctx, chunks)
	if err != nil {
		return IngestReport{}, err
	}

	if err := ix.replace(ctx, chunks, embedded); err != nil {
		return IngestReport{}, err
	}

	report.Chunks = len(chunks)
	ix.observer.OnEvent(ctx, observability.NewEvent(EventIngestComplete, observability.LevelInfo, "knowledge.Index",
		map[string]any{
			"documents":               report.Documents,
			"chunks":                  report.Chunks,
			observability.DurationKey: time.Since(start),
		}))

	return report, nil
}

func indexable(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}

func (ix *Index) embed(ctx context.Context, chunks []pending) ([][]float32, error) {
	size := max(ix.cfg.BatchSize, 1)
	var batches [][]string
	for i := 0; i < len(chunks); i += size {
		end := min(i+size, len(chunks))
		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.content)
		}
		batches = append(batches, texts)
	}

	embedded, err := processParallel(ctx, ix.cfg.Workers, batches, func(ctx context.Context, texts []string) ([][]float32, error) {
		vecs, err := ix.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionSkew, len(vecs), len(texts))
		}
		return vecs, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(chunks))
	for _, vecs := range embedded {
		out = append(out, vecs...)
	}
	return out, nil
}

func (ix *Index) replace(ctx context.Context, chunks []pending, embedded [][]float32) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM vectors"); err != nil {
		return err
	}

	byID := make(map[string][]float32, len(chunks))
	for i, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (id, source, content) VALUES (?, ?, ?)",
			c.id, c.source, c.content,
		); err != nil {
			return err
		}
		normalized, err := ix.vectors.upsert(ctx, tx, c.id, embedded[i])
		if err != nil {
			return err
		}
		byID[c.id] = normalized
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	ix.vectors.replace(byID)
	return nil
}

// Retrieve returns up to k chunks most similar to query, best first.
// k <= 0 uses the configured TopK.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = ix.cfg.TopK
	}
	if ix.Count() == 0 {
		return []Snippet{}, nil
	}

	qvec, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	hits := ix.vectors.search(qvec, k)
	snippets := make([]Snippet, 0, len(hits))
	for _, hit := range hits {
		s := Snippet{ID: hit.id, Score: hit.score}
		err := ix.db.QueryRowContext(ctx,
			"SELECT source, content FROM chunks WHERE id = ?", hit.id,
		).Scan(&s.Source, &s.Content)
		if err != nil {
			return nil, fmt.Errorf("load chunk %s: %w", hit.id, err)
		}
		snippets = append(snippets, s)
	}

	ix.observer.OnEvent(ctx, observability.NewEvent(EventRetrieve, observability.LevelVerbose, "knowledge.Index",
		map[string]any{"k": k, "hits": len(snippets)}))

	return snippets, nil
}
