package knowledge_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/coach/knowledge"
	"github.com/tailored-agentic-units/coach/observability"
	"github.com/tailored-agentic-units/coach/store"
)

var vocabulary = []string{"epic", "feature", "story", "objective"}

// wordEmbedder maps text to term counts over a fixed vocabulary.
type wordEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *wordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(vocabulary))
	for i, word := range vocabulary {
		vec[i] = float32(strings.Count(lower, word))
	}
	return vec
}

func (e *wordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *wordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func writeDocs(t *testing.T, files map[string]string) store.Store {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return store.NewFileStore(dir)
}

func openIndex(t *testing.T, dbPath string, e *wordEmbedder, configure ...func(*knowledge.Config)) *knowledge.Index {
	t.Helper()
	cfg := knowledge.DefaultConfig()
	cfg.DBPath = dbPath
	cfg.ChunkSize = 200
	cfg.ChunkOverlap = 20
	for _, fn := range configure {
		fn(&cfg)
	}

	ix, err := knowledge.Open(context.Background(), &cfg, e, knowledge.WithObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

var testDocs = map[string]string{
	"epics.md":         "An epic is a large initiative. Every epic needs a hypothesis statement. Epic epic epic.",
	"features.txt":     "A feature delivers value within a PI. Each feature has acceptance criteria. Feature feature.",
	"guides/story.txt": "A story is a small slice of a feature. Story story story.",
	"diagram.png":      "epic epic epic epic",
}

func TestIndex_IngestAndRetrieve(t *testing.T) {
	ix := openIndex(t, filepath.Join(t.TempDir(), "kb.db"), &wordEmbedder{})
	ctx := context.Background()

	report, err := ix.Ingest(ctx, writeDocs(t, testDocs), false)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.Documents != 3 {
		t.Errorf("Documents = %d, want 3 (png skipped)", report.Documents)
	}
	if report.Chunks == 0 || report.Chunks != ix.Count() {
		t.Errorf("Chunks = %d, Count() = %d", report.Chunks, ix.Count())
	}

	snippets, err := ix.Retrieve(ctx, "how do I write an epic?", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(snippets) != 2 {
		t.Fatalf("got %d snippets, want 2", len(snippets))
	}
	if snippets[0].Source != "epics.md" {
		t.Errorf("top snippet source = %q, want epics.md", snippets[0].Source)
	}
	if snippets[0].Score < snippets[1].Score {
		t.Errorf("snippets not in descending score order: %v < %v", snippets[0].Score, snippets[1].Score)
	}
	if snippets[0].Content == "" {
		t.Error("snippet content is empty")
	}
}

func TestIndex_Retrieve_DefaultTopK(t *testing.T) {
	ix := openIndex(t, filepath.Join(t.TempDir(), "kb.db"), &wordEmbedder{})
	ctx := context.Background()

	if _, err := ix.Ingest(ctx, writeDocs(t, testDocs), false); err != nil {
		t.Fatal(err)
	}

	snippets, err := ix.Retrieve(ctx, "feature", 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(snippets) > ix.TopK() {
		t.Errorf("got %d snippets, want at most %d", len(snippets), ix.TopK())
	}
}

func TestIndex_Ingest_ConcurrentBatchesKeepOrder(t *testing.T) {
	e := &wordEmbedder{}
	ix := openIndex(t, filepath.Join(t.TempDir(), "kb.db"), e, func(cfg *knowledge.Config) {
		cfg.BatchSize = 1
		cfg.Workers = 4
	})
	ctx := context.Background()

	report, err := ix.Ingest(ctx, writeDocs(t, testDocs), false)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if e.calls != report.Chunks {
		t.Errorf("embedder called %d times, want one call per chunk (%d)", e.calls, report.Chunks)
	}

	for query, want := range map[string]string{
		"story":   "guides/story.txt",
		"feature": "features.txt",
		"epic":    "epics.md",
	} {
		snippets, err := ix.Retrieve(ctx, query, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(snippets) != 1 || snippets[0].Source != want {
			t.Errorf("Retrieve(%q) = %+v, want source %s", query, snippets, want)
		}
	}
}

func TestIndex_Ingest_OnlyOnce(t *testing.T) {
	e := &wordEmbedder{}
	ix := openIndex(t, filepath.Join(t.TempDir(), "kb.db"), e)
	ctx := context.Background()
	docs := writeDocs(t, testDocs)

	first, err := ix.Ingest(ctx, docs, false)
	if err != nil {
		t.Fatal(err)
	}
	calls := e.calls

	second, err := ix.Ingest(ctx, docs, false)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Skipped {
		t.Error("second Ingest should be skipped")
	}
	if second.Chunks != first.Chunks {
		t.Errorf("skipped report chunks = %d, want %d", second.Chunks, first.Chunks)
	}
	if e.calls != calls {
		t.Errorf("embedder called %d more times on skipped ingest", e.calls-calls)
	}

	forced, err := ix.Ingest(ctx, writeDocs(t, map[string]string{"only.md": "objective objective"}), true)
	if err != nil {
		t.Fatal(err)
	}
	if forced.Skipped || forced.Documents != 1 {
		t.Errorf("forced report = %+v", forced)
	}
	if ix.Count() != forced.Chunks {
		t.Errorf("Count() = %d, want %d after rebuild", ix.Count(), forced.Chunks)
	}
}

func TestIndex_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kb.db")
	ctx := context.Background()

	cfg := knowledge.DefaultConfig()
	cfg.DBPath = dbPath
	ix, err := knowledge.Open(ctx, &cfg, &wordEmbedder{}, knowledge.WithObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatal(err)
	}
	report, err := ix.Ingest(ctx, writeDocs(t, testDocs), false)
	if err != nil {
		t.Fatal(err)
	}
	ix.Close()

	reopened := openIndex(t, dbPath, &wordEmbedder{})
	if reopened.Count() != report.Chunks {
		t.Errorf("reopened Count() = %d, want %d", reopened.Count(), report.Chunks)
	}

	snippets, err := reopened.Retrieve(ctx, "story", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(snippets) != 1 || snippets[0].Source != "guides/story.txt" {
		t.Errorf("snippets = %+v, want guides/story.txt", snippets)
	}
}

func TestIndex_Retrieve_Errors(t *testing.T) {
	e := &wordEmbedder{}
	ix := openIndex(t, filepath.Join(t.TempDir(), "kb.db"), e)
	ctx := context.Background()

	if _, err := ix.Retrieve(ctx, "  ", 3); !errors.Is(err, knowledge.ErrEmptyQuery) {
		t.Errorf("Retrieve(blank) error = %v, want ErrEmptyQuery", err)
	}

	snippets, err := ix.Retrieve(ctx, "epic", 3)
	if err != nil || len(snippets) != 0 {
		t.Errorf("Retrieve on empty index = %v, %v", snippets, err)
	}

	if _, err := ix.Ingest(ctx, writeDocs(t, testDocs), false); err != nil {
		t.Fatal(err)
	}
	e.err = errors.New("embedding service down")
	if _, err := ix.Retrieve(ctx, "epic", 3); !errors.Is(err, knowledge.ErrEmbeddingFailed) {
		t.Errorf("Retrieve() error = %v, want ErrEmbeddingFailed", err)
	}
}

func TestIndex_Ingest_EmbeddingFailure(t *testing.T) {
	ix := openIndex(t, filepath.Join(t.TempDir(), "kb.db"), &wordEmbedder{err: errors.New("quota exceeded")})

	_, err := ix.Ingest(context.Background(), writeDocs(t, testDocs), false)
	if !errors.Is(err, knowledge.ErrEmbeddingFailed) {
		t.Errorf("Ingest() error = %v, want ErrEmbeddingFailed", err)
	}
	if ix.Count() != 0 {
		t.Errorf("Count() = %d after failed ingest, want 0", ix.Count())
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := knowledge.DefaultConfig()
	cfg.Merge(&knowledge.Config{TopK: 3, Dir: "docs"})

	if cfg.TopK != 3 || cfg.Dir != "docs" {
		t.Errorf("merged config = %+v", cfg)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Errorf("chunking defaults changed: %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
}
