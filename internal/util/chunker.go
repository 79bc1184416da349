package util

import (
	"strings"
	"unicode"

	"vidqa/internal/models"
)

// DefaultSeparators are tried in order: paragraph, line, sentence, word.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

type ChunkOptions struct {
	Size       int
	Overlap    int
	Separators []string
}

func (o ChunkOptions) normalized() ChunkOptions {
	if o.Size <= 0 {
		o.Size = 1500
	}
	if o.Overlap < 0 || o.Overlap >= o.Size {
		o.Overlap = 0
	}
	if len(o.Separators) == 0 {
		o.Separators = DefaultSeparators
	}
	return o
}

// SplitText cuts text into windows of at most opts.Size runes. Each window
// ends at the latest separator that still makes progress past the overlap,
// falling back to a hard cut. Consecutive chunks share the runes between the
// next chunk's Offset and the previous chunk's end.
func SplitText(text string, opts ChunkOptions) []models.TextChunk {
	opts = opts.normalized()
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	seps := make([][]rune, 0, len(opts.Separators))
	for _, s := range opts.Separators {
		if s != "" {
			seps = append(seps, []rune(s))
		}
	}

	out := make([]models.TextChunk, 0, n/(opts.Size-opts.Overlap)+1)
	start := 0
	for {
		end := n
		if n-start > opts.Size {
			end = breakPoint(runes, start, start+opts.Size, opts.Overlap, seps)
		}
		out = append(out, models.TextChunk{
			Text:    string(runes[start:end]),
			Ordinal: len(out),
			Offset:  start,
		})
		if end >= n {
			break
		}
		start = nextStart(runes, start, end, opts.Overlap)
	}
	return out
}

func breakPoint(runes []rune, start, limit, overlap int, seps [][]rune) int {
	minEnd := start + overlap + 1
	window := runes[start:limit]
	for _, sep := range seps {
		i := lastIndexRunes(window, sep)
		if i < 0 {
			continue
		}
		if end := start + i + len(sep); end >= minEnd {
			return end
		}
	}
	return limit
}

// nextStart backs off by overlap runes and then moves forward to the first
// word start inside the overlap, if there is one.
func nextStart(runes []rune, start, end, overlap int) int {
	next := end - overlap
	if next <= start {
		next = start + 1
	}
	for i := next; i < end; i++ {
		if unicode.IsSpace(runes[i-1]) && !unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return next
}

func lastIndexRunes(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// JoinChunks rebuilds the source text from chunks produced by SplitText by
// dropping each chunk's overlap with its predecessor.
func JoinChunks(chunks []models.TextChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(chunks[0].Text)
	prevEnd := chunks[0].Offset + len([]rune(chunks[0].Text))
	for _, c := range chunks[1:] {
		r := []rune(c.Text)
		skip := prevEnd - c.Offset
		if skip < 0 {
			skip = 0
		}
		if skip < len(r) {
			b.WriteString(string(r[skip:]))
		}
		if end := c.Offset + len(r); end > prevEnd {
			prevEnd = end
		}
	}
	return b.String()
}
