package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"vidqa/internal/util"
)

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var youtubeHosts = map[string]struct{}{
	"youtube.com":              {},
	"www.youtube.com":          {},
	"m.youtube.com":            {},
	"music.youtube.com":        {},
	"youtube-nocookie.com":     {},
	"www.youtube-nocookie.com": {},
}

// ParseVideoID extracts the 11-character video id from the common link
// shapes, or accepts a bare id.
func ParseVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", util.ErrInvalidVideoURL)
	}
	if videoIDRe.MatchString(raw) {
		return raw, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrInvalidVideoURL, err)
	}
	host := strings.ToLower(u.Hostname())
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch {
	case host == "youtu.be" || host == "www.youtu.be":
		id = segments[0]
	case isYouTubeHost(host):
		switch {
		case segments[0] == "watch":
			id = u.Query().Get("v")
		case len(segments) >= 2 && (segments[0] == "shorts" || segments[0] == "embed" || segments[0] == "live" || segments[0] == "v"):
			id = segments[1]
		}
	}
	if !videoIDRe.MatchString(id) {
		return "", fmt.Errorf("%w: %s", util.ErrInvalidVideoURL, raw)
	}
	return id, nil
}

func isYouTubeHost(host string) bool {
	_, ok := youtubeHosts[host]
	return ok
}

func CanonicalURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
