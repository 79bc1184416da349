package activities

type AcquireTranscriptInput struct {
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
}

type AcquireTranscriptOutput struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	Cached bool   `json:"cached"`
	Chars  int    `json:"chars"`
}

type IndexTranscriptInput struct {
	VideoID string `json:"video_id"`
}

type IndexTranscriptOutput struct {
	ChunkCount int `json:"chunk_count"`
}

type UpdateVideoStatusInput struct {
	VideoID    string `json:"video_id"`
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Source     string `json:"source,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	Status     string `json:"status"`
	FailReason string `json:"fail_reason,omitempty"`
}
