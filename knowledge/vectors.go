package knowledge

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"sync"
)

// vectors keeps normalized chunk embeddings in memory and mirrors them to
// SQLite BLOBs. Search is exact brute-force cosine similarity.
type vectors struct {
	db *sql.DB

	mu   sync.RWMutex
	byID map[string][]float32
}

type scored struct {
	id    string
	score float64
}

func newVectors(ctx context.Context, db *sql.DB) (*vectors, error) {
	v := &vectors{db: db, byID: make(map[string][]float32)}

	rows, err := db.QueryContext(ctx, "SELECT item_id, embedding, dimensions FROM vectors")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   string
			blob []byte
			dims int
		)
		if err := rows.Scan(&id, &blob, &dims); err != nil {
			return nil, err
		}
		v.byID[id] = decode(blob, dims)
	}
	return v, rows.Err()
}

// upsert normalizes vec so dot product equals cosine similarity.
func (v *vectors) upsert(ctx context.Context, tx *sql.Tx, id string, vec []float32) ([]float32, error) {
	normalized := normalize(vec)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO vectors (item_id, embedding, dimensions)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			embedding=excluded.embedding, dimensions=excluded.dimensions
	`, id, encode(normalized), len(normalized))
	return normalized, err
}

func (v *vectors) replace(byID map[string][]float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.byID = byID
}

func (v *vectors) count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.byID)
}

// search returns the top k ids by cosine similarity, best first.
func (v *vectors) search(query []float32, k int) []scored {
	q := normalize(query)

	v.mu.RLock()
	h := &minHeap{}
	for id, vec := range v.byID {
		if len(vec) != len(q) {
			continue
		}
		s := dot(q, vec)
		if h.Len() < k {
			heap.Push(h, scored{id: id, score: s})
		} else if s > (*h)[0].score {
			(*h)[0] = scored{id: id, score: s}
			heap.Fix(h, 0)
		}
	}
	v.mu.RUnlock()

	out := make([]scored, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(scored)
	}
	return out
}

type minHeap []scored

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].score < h[j].score }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(scored)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(b []byte, dims int) []float32 {
	v := make([]float32, dims)
	for i := 0; i < dims && i*4+4 <= len(b); i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
