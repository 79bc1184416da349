package workflows

type VideoProcessInput struct {
	VideoID                string `json:"video_id"`
	URL                    string `json:"url"`
	ActivityTimeoutSeconds int    `json:"activity_timeout_seconds"`
}

type VideoProcessResult struct {
	VideoID    string `json:"video_id"`
	Title      string `json:"title"`
	Source     string `json:"source"`
	ChunkCount int    `json:"chunk_count"`
	Cached     bool   `json:"cached"`
}

type VideoStatus struct {
	VideoID     string            `json:"video_id"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Steps       map[string]string `json:"steps"`
}
