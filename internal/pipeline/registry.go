package pipeline

import (
	"sort"
	"sync"

	"vidqa/internal/models"
	"vidqa/internal/vector"
)

// Record is everything the Q&A endpoints need for one video. Index is nil
// when the transcript is known but no index could be opened.
type Record struct {
	Video      models.Video
	Transcript string
	Chunks     []models.TextChunk
	Index      vector.Index
}

func (r Record) Indexed() bool { return r.Index != nil }

// Registry holds processed videos for the life of the process.
type Registry struct {
	mu      sync.RWMutex
	records map[string]Record
	last    string
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]Record)}
}

// Put stores rec and marks it as the most recently processed video.
func (r *Registry) Put(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Video.VideoID] = cloneRecord(rec)
	r.last = rec.Video.VideoID
}

// Restore stores rec without touching Last.
func (r *Registry) Restore(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Video.VideoID] = cloneRecord(rec)
}

func (r *Registry) Get(videoID string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[videoID]
	if !ok {
		return Record{}, false
	}
	return cloneRecord(rec), true
}

func (r *Registry) Last() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// List returns the registered videos, most recently updated first.
func (r *Registry) List() []models.Video {
	r.mu.RLock()
	out := make([]models.Video, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Video)
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].VideoID < out[j].VideoID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func cloneRecord(rec Record) Record {
	rec.Chunks = append([]models.TextChunk(nil), rec.Chunks...)
	return rec
}
