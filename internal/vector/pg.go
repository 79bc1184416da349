package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"vidqa/internal/models"
	"vidqa/internal/storage"
	"vidqa/internal/util"

	"github.com/jackc/pgx/v5"
)

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ChunkWriter interface {
	ReplaceVideoChunks(ctx context.Context, videoID string, chunks []storage.ChunkRecord) error
}

// PGBackend stores vectors in video_chunks and searches them with pgvector.
type PGBackend struct {
	q            Queryer
	w            ChunkWriter
	embedVersion string
}

func NewPGBackend(q Queryer, w ChunkWriter, embedVersion string) *PGBackend {
	return &PGBackend{q: q, w: w, embedVersion: embedVersion}
}

func (b *PGBackend) Build(ctx context.Context, videoID string, chunks []models.TextChunk, vectors [][]float32) (Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("index build: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	records := make([]storage.ChunkRecord, len(chunks))
	for i, c := range chunks {
		lit := ToLiteral(vectors[i])
		records[i] = storage.ChunkRecord{
			VideoID:          videoID,
			ChunkIndex:       c.Ordinal,
			Offset:           c.Offset,
			Text:             c.Text,
			EmbeddingVersion: b.embedVersion,
			EmbeddingVector:  &lit,
		}
	}
	if err := b.w.ReplaceVideoChunks(ctx, videoID, records); err != nil {
		return nil, err
	}
	return &PGIndex{q: b.q, videoID: videoID, n: len(chunks)}, nil
}

func (b *PGBackend) Open(ctx context.Context, videoID string) (Index, error) {
	var n int
	err := b.q.QueryRow(ctx, `SELECT COUNT(*) FROM video_chunks WHERE video_id=$1 AND embedding IS NOT NULL`, videoID).Scan(&n)
	if err != nil {
		return nil, fmt.Errorf("count video chunks: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", util.ErrIndexNotInitialized, videoID)
	}
	return &PGIndex{q: b.q, videoID: videoID, n: n}, nil
}

type PGIndex struct {
	q       Queryer
	videoID string
	n       int
}

func (p *PGIndex) Len() int { return p.n }

func (p *PGIndex) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	k = clampK(k, p.n)
	if k == 0 {
		return nil, nil
	}
	rows, err := p.q.Query(ctx, `
SELECT chunk_index,
       char_offset,
       text,
       1 - (embedding <=> $2::vector) AS score
FROM video_chunks
WHERE video_id = $1
  AND embedding IS NOT NULL
ORDER BY embedding <=> $2::vector, chunk_index
LIMIT $3`, p.videoID, ToLiteral(query), k)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.ScoredChunk, 0, k)
	for rows.Next() {
		var r models.ScoredChunk
		if err := rows.Scan(&r.Ordinal, &r.Offset, &r.Text, &r.Score); err != nil {
			return nil, fmt.Errorf("scan chunk result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
