package generators

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"vidqa/internal/models"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

type rawQuizItem struct {
	Question string          `json:"question"`
	Options  []string        `json:"options"`
	Answer   json.RawMessage `json:"answer"`
}

// ParseQuiz extracts quiz items from model output and keeps only valid ones.
// It fails when fewer than size valid items remain.
func ParseQuiz(raw string, size int) ([]models.QuizItem, error) {
	body := extractJSON(stripCodeFence(strings.TrimSpace(raw)))
	if body == "" {
		return nil, errors.New("no JSON object in model output")
	}

	var items []rawQuizItem
	if body[0] == '[' {
		if err := json.Unmarshal([]byte(body), &items); err != nil {
			return nil, fmt.Errorf("decode quiz array: %w", err)
		}
	} else {
		var payload struct {
			Quiz      []rawQuizItem `json:"quiz"`
			Questions []rawQuizItem `json:"questions"`
		}
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			return nil, fmt.Errorf("decode quiz object: %w", err)
		}
		items = payload.Quiz
		if len(items) == 0 {
			items = payload.Questions
		}
	}

	out := make([]models.QuizItem, 0, len(items))
	for _, it := range items {
		var answer string
		if err := json.Unmarshal(it.Answer, &answer); err != nil {
			continue
		}
		n, ok := NormalizeQuizItem(models.QuizItem{Question: it.Question, Options: it.Options, Answer: answer})
		if ok {
			out = append(out, n)
		}
	}
	if len(out) < size {
		return nil, fmt.Errorf("got %d valid questions, want %d", len(out), size)
	}
	return out[:size], nil
}

func stripCodeFence(s string) string {
	if m := fencedJSONRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// extractJSON returns the outermost object or array in s.
func extractJSON(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
