package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vidqa/internal/util"
)

type VideoInfo struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Channel      string  `json:"channel"`
	DurationSecs float64 `json:"duration"`
}

type AudioFile struct {
	Path    string
	VideoID string
	Title   string
}

// Downloader resolves a video URL to metadata, captions or a local audio file.
type Downloader interface {
	Probe(ctx context.Context, url string) (VideoInfo, error)
	DownloadAudio(ctx context.Context, url string) (AudioFile, error)
	Captions(ctx context.Context, url string) (string, error)
}

type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// YtDlp drives the yt-dlp binary. Every failure wraps util.ErrDownloadFailed.
type YtDlp struct {
	bin          string
	mediaDir     string
	captionLangs string
	run          runFunc
}

func NewYtDlp(bin, mediaDir, captionLangs string) *YtDlp {
	if strings.TrimSpace(bin) == "" {
		bin = "yt-dlp"
	}
	if strings.TrimSpace(captionLangs) == "" {
		captionLangs = "en.*,en"
	}
	return &YtDlp{bin: bin, mediaDir: mediaDir, captionLangs: captionLangs, run: execRun}
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func (y *YtDlp) Probe(ctx context.Context, url string) (VideoInfo, error) {
	stdout, stderr, err := y.run(ctx, y.bin, "--dump-json", "--no-download", "--no-playlist", "--no-warnings", url)
	if err != nil {
		return VideoInfo{}, commandError("probe", stderr, err)
	}
	var info VideoInfo
	if err := json.Unmarshal(lastJSONLine(stdout), &info); err != nil {
		return VideoInfo{}, fmt.Errorf("%w: decode probe output: %v", util.ErrDownloadFailed, err)
	}
	return info, nil
}

func (y *YtDlp) DownloadAudio(ctx context.Context, url string) (AudioFile, error) {
	if err := util.EnsureDir(y.mediaDir); err != nil {
		return AudioFile{}, fmt.Errorf("%w: %v", util.ErrDownloadFailed, err)
	}
	stdout, stderr, err := y.run(ctx, y.bin,
		"--format", "bestaudio/best",
		"--output", filepath.Join(y.mediaDir, "%(id)s.%(ext)s"),
		"--no-playlist",
		"--no-simulate",
		"--dump-json",
		"--no-warnings",
		url,
	)
	if err != nil {
		return AudioFile{}, commandError("download audio", stderr, err)
	}
	var meta struct {
		ID                 string `json:"id"`
		Title              string `json:"title"`
		Ext                string `json:"ext"`
		Filename           string `json:"_filename"`
		RequestedDownloads []struct {
			Filepath string `json:"filepath"`
		} `json:"requested_downloads"`
	}
	if err := json.Unmarshal(lastJSONLine(stdout), &meta); err != nil {
		return AudioFile{}, fmt.Errorf("%w: decode download output: %v", util.ErrDownloadFailed, err)
	}
	if meta.ID == "" {
		return AudioFile{}, fmt.Errorf("%w: downloader returned no id", util.ErrDownloadFailed)
	}

	candidates := make([]string, 0, 3)
	if len(meta.RequestedDownloads) > 0 {
		candidates = append(candidates, meta.RequestedDownloads[0].Filepath)
	}
	candidates = append(candidates, meta.Filename, filepath.Join(y.mediaDir, meta.ID+"."+meta.Ext))
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return AudioFile{Path: p, VideoID: meta.ID, Title: meta.Title}, nil
		}
	}
	matches, _ := filepath.Glob(filepath.Join(y.mediaDir, meta.ID+".*"))
	if len(matches) == 0 {
		return AudioFile{}, fmt.Errorf("%w: no audio file for %s in %s", util.ErrDownloadFailed, meta.ID, y.mediaDir)
	}
	return AudioFile{Path: matches[0], VideoID: meta.ID, Title: meta.Title}, nil
}

// Captions fetches uploaded subtitles first, then automatic ones.
func (y *YtDlp) Captions(ctx context.Context, url string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "vidqa-subs-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp dir: %v", util.ErrDownloadFailed, err)
	}
	defer os.RemoveAll(tmpDir)

	var lastErr error
	for _, kind := range []string{"--write-subs", "--write-auto-subs"} {
		_, stderr, err := y.run(ctx, y.bin,
			"--skip-download",
			kind,
			"--sub-langs", y.captionLangs,
			"--sub-format", "vtt",
			"--output", filepath.Join(tmpDir, "%(id)s"),
			"--no-playlist",
			"--no-warnings",
			url,
		)
		if err != nil {
			lastErr = commandError("captions", stderr, err)
			if ctx.Err() != nil {
				return "", lastErr
			}
			continue
		}
		matches, _ := filepath.Glob(filepath.Join(tmpDir, "*.vtt"))
		for _, m := range matches {
			b, err := os.ReadFile(m)
			if err != nil {
				lastErr = err
				continue
			}
			if text := ParseVTT(string(b)); text != "" {
				return text, nil
			}
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: no captions available: %v", util.ErrDownloadFailed, lastErr)
	}
	return "", fmt.Errorf("%w: no captions available", util.ErrDownloadFailed)
}

func commandError(op string, stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: yt-dlp %s: %s", util.ErrDownloadFailed, op, msg)
}

// lastJSONLine returns the final non-empty line; yt-dlp prints one JSON
// document per line.
func lastJSONLine(b []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if l := bytes.TrimSpace(lines[i]); len(l) > 0 {
			return l
		}
	}
	return nil
}
