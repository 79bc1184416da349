package vector

import (
	"context"

	"vidqa/internal/models"
)

const DefaultK = 7

// Index is an immutable similarity index over one video's chunks.
type Index interface {
	Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
	Len() int
}

// Backend builds and reopens per-video indexes. Build replaces any prior
// index for the video. Open fails with util.ErrIndexNotInitialized when the
// video has no index.
type Backend interface {
	Build(ctx context.Context, videoID string, chunks []models.TextChunk, vectors [][]float32) (Index, error)
	Open(ctx context.Context, videoID string) (Index, error)
}

func clampK(k, n int) int {
	if k <= 0 {
		k = DefaultK
	}
	if k > n {
		k = n
	}
	return k
}
