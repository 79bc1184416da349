package transcripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vidqa/internal/util"
)

type Transcript struct {
	VideoID   string    `json:"video_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	Text      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps one <id>.txt and one <id>.json per video under dir.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Path(videoID string) string {
	return util.SafeJoin(s.dir, videoID+".txt")
}

func (s *Store) metaPath(videoID string) string {
	return util.SafeJoin(s.dir, videoID+".json")
}

// Save writes the text before the metadata so a reader never sees metadata
// without a transcript.
func (s *Store) Save(ctx context.Context, t Transcript) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(t.VideoID) == "" {
		return "", errors.New("transcript video id is required")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	path := s.Path(t.VideoID)
	if err := util.WriteTextAtomic(path, t.Text); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := util.WriteJSONAtomic(s.metaPath(t.VideoID), t); err != nil {
		return "", fmt.Errorf("write transcript metadata: %w", err)
	}
	return path, nil
}

func (s *Store) Load(ctx context.Context, videoID string) (Transcript, bool, error) {
	if err := ctx.Err(); err != nil {
		return Transcript{}, false, err
	}
	b, err := os.ReadFile(s.Path(videoID))
	if errors.Is(err, os.ErrNotExist) {
		return Transcript{}, false, nil
	}
	if err != nil {
		return Transcript{}, false, fmt.Errorf("read transcript: %w", err)
	}
	t := Transcript{VideoID: videoID}
	if mb, err := os.ReadFile(s.metaPath(videoID)); err == nil {
		if err := json.Unmarshal(mb, &t); err != nil {
			return Transcript{}, false, fmt.Errorf("decode transcript metadata: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Transcript{}, false, fmt.Errorf("read transcript metadata: %w", err)
	}
	t.VideoID = videoID
	t.Text = string(b)
	return t, true, nil
}

// List returns metadata for every stored transcript, newest first.
func (s *Store) List(ctx context.Context) ([]Transcript, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	out := make([]Transcript, 0, len(matches))
	for _, m := range matches {
		id := strings.TrimSuffix(filepath.Base(m), ".txt")
		t, ok, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		t.Text = ""
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
