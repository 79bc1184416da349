package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"vidqa/internal/config"
	"vidqa/internal/generators"
	"vidqa/internal/pipeline"
	"vidqa/internal/util"
)

// Processor runs or attaches to the processing of one video. The inline
// pipeline and the Temporal-backed processor both satisfy it.
type Processor interface {
	Process(ctx context.Context, rawURL string) (pipeline.Result, error)
}

type Server struct {
	cfg    config.Config
	videos *pipeline.Service
	proc   Processor
	gen    *generators.Service
	log    *slog.Logger
}

// NewServer wires the HTTP handlers. proc may be nil, in which case videos
// processes inline.
func NewServer(cfg config.Config, videos *pipeline.Service, proc Processor, gen *generators.Service, log *slog.Logger) *Server {
	if proc == nil {
		proc = videos
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, videos: videos, proc: proc, gen: gen, log: log}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/process_video", s.handleProcess(false))
	mux.HandleFunc("/transcript", s.handleProcess(true))
	mux.HandleFunc("/chat_with_video", s.handleChat)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/summarize_video", s.handleSummary)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/generate_quiz", s.handleQuiz)
	mux.HandleFunc("/init-quiz", s.handleQuiz)
	mux.HandleFunc("/ans", s.handleAnswers)
	mux.HandleFunc("/videos", s.handleVideos)
	mux.HandleFunc("/videos/", s.handleVideoScoped)
	return withCORS(withRequestLog(s.log, withTrimmedSlash(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleProcess serves /process_video and /transcript. The latter always
// returns the transcript text.
func (s *Server) handleProcess(alwaysTranscript bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		p, err := readParams(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		rawURL := p.str("video_url", "url", "link", "youtube_url")
		if rawURL == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("video url is required"))
			return
		}

		res, err := s.proc.Process(r.Context(), rawURL)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		msg := "Video processing complete"
		if res.AlreadyProcessed {
			msg = "Video already processed"
		}
		body := map[string]any{
			"message":     msg,
			"status":      "success",
			"video_id":    res.VideoID,
			"video_title": res.Title,
			"source":      res.Source,
			"chunk_count": res.ChunkCount,
		}
		if alwaysTranscript || p.flag("include_transcript") {
			body["transcript"] = res.Transcript
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	p, err := readParams(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	question := p.str("query", "question", "message")
	if question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}

	ctx := r.Context()
	rec, err := s.videos.Video(ctx, p.str("video_id"))
	if err != nil {
		if errors.Is(err, util.ErrNoVideo) || errors.Is(err, util.ErrTranscriptNotFound) {
			err = fmt.Errorf("%w: %v", util.ErrIndexNotInitialized, err)
		}
		s.fail(w, r, err)
		return
	}
	chunks, err := s.videos.Retrieve(ctx, rec.Video.VideoID, question, s.cfg.RetrieveK)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ans, err := s.gen.Answer(ctx, generators.AnswerInput{
		VideoID:  rec.Video.VideoID,
		Title:    rec.Video.Title,
		Question: question,
		Chunks:   chunks,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":       ans.Text,
		"video_id":     rec.Video.VideoID,
		"sources":      ans.Sources,
		"llm_provider": ans.Provider.Name,
		"llm_model":    ans.Provider.Model,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	p, err := readParams(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.videos.Video(r.Context(), p.str("video_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sum, err := s.gen.Summarize(r.Context(), generators.SummaryInput{
		VideoID:    rec.Video.VideoID,
		Title:      rec.Video.Title,
		Transcript: rec.Transcript,
		Refresh:    p.flag("refresh"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleQuiz answers 200 even when the model output could not be turned
// into a quiz; the body then carries error and quiz_text.
func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	p, err := readParams(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.videos.Video(r.Context(), p.str("video_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q, err := s.gen.Quiz(r.Context(), generators.QuizInput{
		VideoID:    rec.Video.VideoID,
		Title:      rec.Video.Title,
		Transcript: rec.Transcript,
		Refresh:    p.flag("refresh"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if q.Error != "" {
		s.log.Warn("quiz generation returned invalid output",
			slog.String("video_id", q.VideoID),
			slog.String("request_id", util.RequestID(r.Context())),
			slog.String("error", q.Error),
		)
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleAnswers(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	p, err := readParams(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	answers := p.list("answers")
	if len(answers) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("answers are required"))
		return
	}
	videoID := p.str("video_id")
	if videoID == "" {
		rec, err := s.videos.Video(r.Context(), "")
		if err != nil {
			s.fail(w, r, err)
			return
		}
		videoID = rec.Video.VideoID
	}
	res, err := s.gen.SubmitAnswers(r.Context(), videoID, answers)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	videos, err := s.videos.Videos(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": videos})
}

func (s *Server) handleVideoScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/videos/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] != "transcript") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	rec, err := s.videos.Video(r.Context(), parts[0])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(parts) == 1 {
		writeJSON(w, http.StatusOK, rec.Video)
		return
	}

	name := rec.Video.Title
	if strings.TrimSpace(name) == "" {
		name = rec.Video.VideoID
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", util.SanitizeFilename(name)+".txt"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rec.Transcript))
}

// fail maps a domain error onto a status and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch {
	case status == statusClientClosedRequest:
		s.log.Debug("client closed request",
			slog.String("path", r.URL.Path),
			slog.String("request_id", util.RequestID(r.Context())),
		)
	case status >= http.StatusInternalServerError:
		s.log.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", util.RequestID(r.Context())),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}
	writeErr(w, status, err)
}

// statusClientClosedRequest is the nginx convention for a caller that went
// away before the response was ready.
const statusClientClosedRequest = 499

func statusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrInvalidVideoURL),
		errors.Is(err, util.ErrIndexNotInitialized),
		errors.Is(err, util.ErrNoVideo),
		errors.Is(err, util.ErrTranscriptNotFound),
		errors.Is(err, util.ErrNoQuiz):
		return http.StatusBadRequest
	case errors.Is(err, util.ErrDownloadFailed),
		errors.Is(err, util.ErrTranscriptionFailed),
		errors.Is(err, util.ErrEmptyTranscript),
		errors.Is(err, util.ErrProviderFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	return false
}
