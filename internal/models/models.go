package models

import "time"

const (
	VideoStatusPending    = "pending"
	VideoStatusProcessing = "processing"
	VideoStatusProcessed  = "processed"
	VideoStatusFailed     = "failed"

	SourceCache         = "cache"
	SourceCaptions      = "captions"
	SourceTranscription = "transcription"
)

type Video struct {
	VideoID        string    `json:"video_id"`
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Source         string    `json:"source,omitempty"`
	Transcript     string    `json:"-"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
	ChunkCount     int       `json:"chunk_count"`
	Status         string    `json:"status"`
	FailReason     string    `json:"fail_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TextChunk is a contiguous slice of a transcript. Offset is in runes.
type TextChunk struct {
	Text    string `json:"text"`
	Ordinal int    `json:"ordinal"`
	Offset  int    `json:"offset"`
}

type ScoredChunk struct {
	TextChunk
	Score float64 `json:"score"`
}

type QuizItem struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Quiz is always returned as a value; Error is set when generation did not
// produce a valid quiz.
type Quiz struct {
	QuizID    string     `json:"quiz_id,omitempty"`
	VideoID   string     `json:"video_id"`
	Items     []QuizItem `json:"quiz"`
	Error     string     `json:"error,omitempty"`
	Raw       string     `json:"quiz_text,omitempty"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
}

type AnswerResult struct {
	Question      string `json:"question"`
	Selected      string `json:"selected"`
	CorrectAnswer string `json:"correct_answer"`
	Correct       bool   `json:"correct"`
}

type ScoreResult struct {
	QuizID  string         `json:"quiz_id,omitempty"`
	VideoID string         `json:"video_id"`
	Score   int            `json:"score"`
	Total   int            `json:"total"`
	Results []AnswerResult `json:"results"`
}

type LLMCall struct {
	CallID       string
	Operation    string
	VideoID      string
	ProviderName string
	Model        string
	RequestID    string
	Status       string
	ErrorType    string
}
