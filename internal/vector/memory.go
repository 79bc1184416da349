package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"vidqa/internal/models"
	"vidqa/internal/util"
)

// MemoryIndex is a brute-force cosine index. Equal scores keep insertion order.
type MemoryIndex struct {
	chunks  []models.TextChunk
	vectors [][]float32
	norms   []float64
	dim     int
}

func NewMemoryIndex(chunks []models.TextChunk, vectors [][]float32) (*MemoryIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("index build: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	idx := &MemoryIndex{
		chunks:  append([]models.TextChunk(nil), chunks...),
		vectors: make([][]float32, len(vectors)),
		norms:   make([]float64, len(vectors)),
	}
	for i, v := range vectors {
		if i == 0 {
			idx.dim = len(v)
		}
		if len(v) != idx.dim || len(v) == 0 {
			return nil, fmt.Errorf("index build: vector %d has dimension %d, want %d", i, len(v), idx.dim)
		}
		idx.vectors[i] = append([]float32(nil), v...)
		idx.norms[i] = norm(v)
	}
	return idx, nil
}

func (m *MemoryIndex) Len() int { return len(m.chunks) }

func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.chunks) == 0 {
		return nil, nil
	}
	if len(query) != m.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), m.dim)
	}
	qn := norm(query)
	scored := make([]models.ScoredChunk, len(m.chunks))
	for i, v := range m.vectors {
		scored[i] = models.ScoredChunk{TextChunk: m.chunks[i], Score: cosine(query, v, qn, m.norms[i])}
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	return scored[:clampK(k, len(scored))], nil
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}

// MemoryBackend keeps indexes for the life of the process.
type MemoryBackend struct {
	mu      sync.RWMutex
	indexes map[string]*MemoryIndex
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{indexes: make(map[string]*MemoryIndex)}
}

func (b *MemoryBackend) Build(ctx context.Context, videoID string, chunks []models.TextChunk, vectors [][]float32) (Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := NewMemoryIndex(chunks, vectors)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.indexes[videoID] = idx
	b.mu.Unlock()
	return idx, nil
}

func (b *MemoryBackend) Open(ctx context.Context, videoID string) (Index, error) {
	b.mu.RLock()
	idx, ok := b.indexes[videoID]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrIndexNotInitialized, videoID)
	}
	return idx, nil
}
