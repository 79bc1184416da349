package generators

import (
	"regexp"
	"strings"

	"vidqa/internal/models"
)

var (
	optionLabelRe = regexp.MustCompile(`^\(?([A-Da-d])[\.\):]\s+`)
	letterOnlyRe  = regexp.MustCompile(`^\(?([A-Da-d])[\.\):]?$`)
)

func stripOptionLabel(s string) string {
	return strings.TrimSpace(optionLabelRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

// NormalizeQuizItem strips option labels and rewrites the answer to the exact
// text of one option. Items without a question, without exactly four
// distinct options, or with an unresolvable answer are rejected.
func NormalizeQuizItem(it models.QuizItem) (models.QuizItem, bool) {
	it.Question = strings.TrimSpace(it.Question)
	if it.Question == "" || len(it.Options) != 4 {
		return models.QuizItem{}, false
	}
	options := make([]string, 4)
	seen := make(map[string]struct{}, 4)
	for i, o := range it.Options {
		o = stripOptionLabel(o)
		k := strings.ToLower(o)
		if o == "" {
			return models.QuizItem{}, false
		}
		if _, dup := seen[k]; dup {
			return models.QuizItem{}, false
		}
		seen[k] = struct{}{}
		options[i] = o
	}
	answer, ok := resolveOption(options, it.Answer)
	if !ok {
		return models.QuizItem{}, false
	}
	return models.QuizItem{Question: it.Question, Options: options, Answer: answer}, true
}

// resolveOption maps an answer given as option text, a labelled option or a
// bare letter onto the canonical option text.
func resolveOption(options []string, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", false
	}
	if o, ok := matchText(options, answer); ok {
		return o, true
	}
	if stripped := stripOptionLabel(answer); stripped != answer {
		if o, ok := matchText(options, stripped); ok {
			return o, true
		}
	}
	if m := optionLabelRe.FindStringSubmatch(answer + " "); m != nil {
		return options[letterIndex(m[1])], true
	}
	if m := letterOnlyRe.FindStringSubmatch(answer); m != nil {
		return options[letterIndex(m[1])], true
	}
	return "", false
}

func matchText(options []string, s string) (string, bool) {
	for _, o := range options {
		if o == s {
			return o, true
		}
	}
	for _, o := range options {
		if strings.EqualFold(o, s) {
			return o, true
		}
	}
	return "", false
}

func letterIndex(l string) int {
	return int(strings.ToUpper(l)[0] - 'A')
}
