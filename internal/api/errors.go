package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vidqa/internal/providers"
	"vidqa/internal/util"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr keeps the detail key older clients read alongside the
// structured error object.
func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"detail":  apiErr.Message,
		"message": apiErr.Message,
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "VQ-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusBadGateway:
		code = "VQ-API-5020"
		switch {
		case errors.Is(err, util.ErrDownloadFailed):
			code = "VQ-MEDIA-5021"
			msg = "Could not download the video. Check that the link is public and retry."
		case errors.Is(err, util.ErrEmptyTranscript):
			code = "VQ-STT-5023"
			msg = "The video produced an empty transcript."
		case errors.Is(err, util.ErrTranscriptionFailed):
			code = "VQ-STT-5022"
			msg = "Transcription failed. Retry shortly."
		default:
			msg = providers.UserMessage(providers.ClassifyError(err))
		}
		return apiError{Code: code, Message: msg}
	case status == http.StatusGatewayTimeout:
		return apiError{Code: "VQ-API-5040", Message: "The request timed out. Retry shortly."}
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "VQ-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "VQ-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "VQ-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == statusClientClosedRequest:
		return apiError{Code: "VQ-API-4990", Message: "Client closed request."}
	case status == http.StatusBadRequest:
		code = "VQ-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "VQ-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "VQ-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidVideoURL):
			msg = "Invalid YouTube URL."
		case errors.Is(err, util.ErrIndexNotInitialized):
			msg = "No vector database available for this video. Process video first."
		case errors.Is(err, util.ErrNoVideo), errors.Is(err, util.ErrTranscriptNotFound):
			msg = "No transcript available. Process video first."
		case errors.Is(err, util.ErrNoQuiz):
			msg = "No quiz available. Generate a quiz first."
		case strings.Contains(raw, "video url is required"):
			msg = "Video URL is required."
		case strings.Contains(raw, "query is required"):
			msg = "Query is required."
		case strings.Contains(raw, "answers are required"):
			msg = "answers are required"
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}
