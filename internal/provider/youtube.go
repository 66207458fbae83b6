package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// Runner executes yt-dlp and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs the real binary.
type ExecRunner struct {
	Path    string
	Cookies string
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	bin := r.Path
	if bin == "" {
		bin = "yt-dlp"
	}

	full := append([]string{"--no-warnings"}, args...)
	if r.Cookies != "" {
		if _, err := os.Stat(r.Cookies); err == nil {
			full = append(full, "--cookies", r.Cookies)
		} else {
			logger.Warn("Cookies file not found", "path", r.Cookies)
		}
	}

	cmd := exec.CommandContext(ctx, bin, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &YtdlpError{Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.Bytes(), nil
}

// YtdlpError keeps stderr so callers can map HTTP failures to messages.
type YtdlpError struct {
	Err    error
	Stderr string
}

func (e *YtdlpError) Error() string {
	msg := e.Stderr
	if i := strings.LastIndex(msg, "ERROR:"); i >= 0 {
		msg = strings.TrimSpace(msg[i+len("ERROR:"):])
	}
	if msg == "" {
		return "yt-dlp: " + e.Err.Error()
	}
	return "yt-dlp: " + msg
}

func (e *YtdlpError) Unwrap() error {
	return e.Err
}

// HTTPStatus finds "HTTP Error 403" style codes in stderr, or 0.
func (e *YtdlpError) HTTPStatus() int {
	for _, code := range []int{403, 404, 410, 429} {
		if strings.Contains(e.Stderr, "HTTP Error "+strconv.Itoa(code)) {
			return code
		}
	}
	return 0
}

type ytdlpMeta struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	WebpageURL string  `json:"webpage_url"`
	Thumbnail  string  `json:"thumbnail"`
	Duration   float64 `json:"duration"`
	ViewCount  int64   `json:"view_count"`
	LikeCount  int64   `json:"like_count"`
	UploadDate string  `json:"upload_date"`
	IsLive     bool    `json:"is_live"`
}

// YouTube resolves videos through yt-dlp metadata. As a Strategy it takes
// either a link or free text, which becomes a ytsearch1: query.
type YouTube struct {
	runner Runner
}

func NewYouTube(runner Runner) *YouTube {
	return &YouTube{runner: runner}
}

func (yp *YouTube) Name() string {
	return "youtube"
}

func (yp *YouTube) Runner() Runner {
	return yp.runner
}

func (yp *YouTube) Resolve(ctx context.Context, query string) (*ResolvedSource, error) {
	if IsYouTubeURL(query) {
		return yp.Info(ctx, query)
	}
	return yp.Search(ctx, query)
}

func (yp *YouTube) Info(ctx context.Context, videoURL string) (*ResolvedSource, error) {
	return yp.dump(ctx, videoURL)
}

func (yp *YouTube) Search(ctx context.Context, query string) (*ResolvedSource, error) {
	res, err := yp.dump(ctx, "ytsearch1:"+query)
	if err != nil {
		return nil, err
	}
	if res.ID == "" {
		return nil, errors.Wrap(ErrNotFound, "no search results")
	}
	return res, nil
}

func (yp *YouTube) dump(ctx context.Context, target string) (*ResolvedSource, error) {
	out, err := yp.runner.Run(ctx, "--dump-json", "--no-playlist", "--skip-download", target)
	if err != nil {
		return nil, err
	}

	// ytsearch can print nothing when there are no hits.
	line := bytes.TrimSpace(out)
	if len(line) == 0 {
		return nil, errors.Wrap(ErrNotFound, "empty yt-dlp output")
	}
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	var meta ytdlpMeta
	if err := json.Unmarshal(line, &meta); err != nil {
		return nil, errors.Wrap(err, "decode yt-dlp json")
	}

	author := meta.Uploader
	if author == "" {
		author = meta.Channel
	}
	page := meta.WebpageURL
	if page == "" && meta.ID != "" {
		page = "https://www.youtube.com/watch?v=" + meta.ID
	}

	return &ResolvedSource{
		PageURL:     page,
		DownloadURL: page,
		Mode:        Stream,
		ID:          meta.ID,
		Title:       meta.Title,
		Author:      author,
		Thumbnail:   meta.Thumbnail,
		Updated:     formatUploadDate(meta.UploadDate),
		Duration:    time.Duration(meta.Duration * float64(time.Second)),
		Views:       meta.ViewCount,
		Likes:       meta.LikeCount,
	}, nil
}

// formatUploadDate turns yt-dlp's 20240131 into 2024-01-31.
func formatUploadDate(d string) string {
	t, err := time.Parse("20060102", d)
	if err != nil {
		return d
	}
	return t.Format("2006-01-02")
}
