package providers

import "strings"

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "rate_limit"), strings.Contains(e, "429"), strings.Contains(e, "too many requests"):
		return ErrorRate
	case strings.Contains(e, "deadline exceeded"), strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"),
		strings.Contains(e, "unavailable"), strings.Contains(e, " 502"), strings.Contains(e, " 503"):
		return ErrorTransient
	case strings.Contains(e, "context length"), strings.Contains(e, "context window"), strings.Contains(e, "too long"):
		return ErrorContext
	default:
		return ErrorPermanent
	}
}

// UserMessage is the client-safe text for a failed provider call.
func UserMessage(t ErrorType) string {
	switch t {
	case ErrorQuota:
		return "The AI provider quota is exhausted. Try again later."
	case ErrorRate:
		return "The AI provider is rate limiting requests. Try again shortly."
	case ErrorTransient:
		return "The AI provider is temporarily unavailable. Try again shortly."
	case ErrorContext:
		return "The request is too large for the AI provider."
	default:
		return "The AI provider failed to process the request."
	}
}
