package media

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	cueTimeRe = regexp.MustCompile(`^(?:(\d{2,}):)?(\d{2}):(\d{2})[.,]\d{3}\s+-->`)
	vttTagRe  = regexp.MustCompile(`<[^>]+>`)
	noiseRe   = regexp.MustCompile(`(?i)\[(music|applause|laughter)\]`)
	cueIDRe   = regexp.MustCompile(`^\d+$`)
)

// ParseVTT flattens WebVTT captions into one line per cue, prefixed with the
// cue start as [MM:SS]. Rolling duplicates from auto captions are dropped.
func ParseVTT(vtt string) string {
	lines := strings.Split(strings.ReplaceAll(vtt, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines)/3)
	seen := make(map[string]bool)
	stamp := ""
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || line == "WEBVTT" || cueIDRe.MatchString(line) ||
			strings.HasPrefix(line, "Kind:") || strings.HasPrefix(line, "Language:") ||
			strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			continue
		}
		if m := cueTimeRe.FindStringSubmatch(line); m != nil {
			stamp = formatStamp(m[1], m[2], m[3])
			continue
		}
		text := vttTagRe.ReplaceAllString(line, "")
		text = noiseRe.ReplaceAllString(html.UnescapeString(text), "")
		text = strings.Join(strings.Fields(text), " ")
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		if stamp != "" {
			text = "[" + stamp + "] " + text
			stamp = ""
		}
		out = append(out, text)
	}
	return strings.Join(out, "\n")
}

func formatStamp(h, m, s string) string {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	return fmt.Sprintf("%02d:%02d", hours*60+minutes, seconds)
}
