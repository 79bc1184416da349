package util

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var timestampRe = regexp.MustCompile(`\[\d{1,2}:\d{2}(?::\d{2})?\]`)

// Snippet returns a single-line preview of at most maxRunes runes.
func Snippet(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 420
	}
	s = CollapseWhitespace(SanitizeText(s))
	runes := []rune(s)
	if len(runes) > maxRunes {
		return strings.TrimSpace(string(runes[:maxRunes])) + "..."
	}
	return s
}

// EvidenceSnippet picks the sentences of a chunk that share the most terms
// with the query. Caption timestamps stay attached to their sentence.
func EvidenceSnippet(chunkText, query string, maxRunes int) string {
	chunkText = CollapseWhitespace(SanitizeText(chunkText))
	if chunkText == "" {
		return ""
	}
	terms := queryTerms(query)
	sentences := splitSentences(chunkText)
	if len(terms) == 0 || len(sentences) < 2 {
		return Snippet(chunkText, maxRunes)
	}

	type scored struct {
		idx   int
		score int
	}
	list := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		low := strings.ToLower(timestampRe.ReplaceAllString(s, ""))
		score := 0
		for _, term := range terms {
			if strings.Contains(low, term) {
				score++
			}
		}
		list = append(list, scored{idx: i, score: score})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })
	if list[0].score == 0 {
		return Snippet(chunkText, maxRunes)
	}
	picked := []int{list[0].idx}
	if len(list) > 1 && list[1].score > 0 {
		picked = append(picked, list[1].idx)
		sort.Ints(picked)
	}
	parts := make([]string, 0, len(picked))
	for _, i := range picked {
		parts = append(parts, sentences[i])
	}
	return Snippet(strings.Join(parts, " "), maxRunes)
}

func splitSentences(s string) []string {
	out := make([]string, 0, 8)
	var b strings.Builder
	for _, r := range s {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if x := strings.TrimSpace(b.String()); x != "" {
				out = append(out, x)
			}
			b.Reset()
		}
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {}, "what": {}, "how": {},
	"why": {}, "which": {}, "that": {}, "this": {}, "these": {}, "those": {}, "with": {},
	"from": {}, "does": {}, "did": {}, "video": {}, "about": {}, "they": {}, "say": {},
}

func queryTerms(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := map[string]struct{}{}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
