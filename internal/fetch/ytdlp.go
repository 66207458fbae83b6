package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/config"
	"github.com/pavelc4/aether-fetch/internal/provider"
	"github.com/pavelc4/aether-fetch/pkg/logger"
	"github.com/pavelc4/aether-fetch/pkg/utils"
)

const (
	QualityAudio   = "audio"
	DefaultQuality = "720"
)

var videoHeights = map[string]bool{"360": true, "720": true, "1080": true}

// ParseQuality maps user input to 360, 720, 1080 or audio. Anything
// unknown becomes the default.
func ParseQuality(s string) string {
	s = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "p"))
	switch {
	case s == "audio" || s == "mp3":
		return QualityAudio
	case videoHeights[s]:
		return s
	default:
		return DefaultQuality
	}
}

func formatFor(quality string) string {
	return "bestvideo[height<=" + quality + "][ext=mp4]+bestaudio[ext=m4a]" +
		"/best[height<=" + quality + "][ext=mp4]" +
		"/best[height<=" + quality + "]"
}

// YtDLP downloads through the yt-dlp binary into a temp folder.
type YtDLP struct {
	runner   provider.Runner
	dir      string
	maxBytes int64

	Policy Policy
}

func NewYtDLP(runner provider.Runner, dir string, maxBytes int64) *YtDLP {
	return &YtDLP{runner: runner, dir: dir, maxBytes: maxBytes, Policy: DefaultPolicy()}
}

// Download fetches videoURL at quality. The result is a temp artifact.
func (y *YtDLP) Download(ctx context.Context, videoURL, title, quality string) (*Artifact, error) {
	ctx, cancel := context.WithTimeout(ctx, config.StreamTimeout)
	defer cancel()

	if err := os.MkdirAll(y.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create temp folder")
	}

	safeTitle := utils.SanitizeTitle(title, 100)
	base := "aether-ytdlp-" + utils.UniqueName(utils.Underscored(safeTitle))
	template := filepath.Join(y.dir, base+".%(ext)s")

	args := []string{"--no-playlist", "-o", template}
	ext, mimeType := ".mp4", "video/mp4"
	if quality == QualityAudio {
		ext, mimeType = ".mp3", "audio/mpeg"
		args = append(args, "-f", "bestaudio/best", "-x", "--audio-format", "mp3", "--audio-quality", "192K")
	} else {
		args = append(args, "-f", formatFor(quality), "--merge-output-format", "mp4")
	}
	if y.maxBytes > 0 {
		args = append(args, "--max-filesize", utils.FormatMB(y.maxBytes)+"M")
	}
	args = append(args, videoURL)

	start := time.Now()
	err := Retry(ctx, y.Policy, "yt-dlp", func() error {
		_, err := y.runner.Run(ctx, args...)
		return err
	})
	if err != nil {
		y.cleanup(base)
		return nil, err
	}

	path, err := y.output(base, ext)
	if err != nil {
		y.cleanup(base)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "stat output")
	}
	if y.maxBytes > 0 && info.Size() > y.maxBytes {
		os.Remove(path)
		return nil, errors.Wrapf(ErrTooLarge, "%d bytes", info.Size())
	}

	logger.InfoWithDuration("yt-dlp download finished", start, "path", path, "size", info.Size(), "quality", quality)
	return &Artifact{
		Path:     path,
		Size:     info.Size(),
		MimeType: mimeType,
		FileName: safeTitle + filepath.Ext(path),
		Title:    title,
		Temp:     true,
	}, nil
}

// output finds the file yt-dlp produced for base, preferring ext. yt-dlp
// exits cleanly when --max-filesize makes it skip the download, so a missing
// file under a size limit counts as too large.
func (y *YtDLP) output(base, ext string) (string, error) {
	var fallback string
	for _, m := range y.files(base) {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		if strings.EqualFold(filepath.Ext(m), ext) {
			return m, nil
		}
		fallback = m
	}
	if fallback != "" {
		return fallback, nil
	}
	if y.maxBytes > 0 {
		return "", errors.Wrapf(ErrTooLarge, "yt-dlp skipped a file over %s MB", utils.FormatMB(y.maxBytes))
	}
	return "", errors.New("yt-dlp produced no file")
}

// files lists everything in the temp folder named base plus an extension.
// Names are compared literally since titles may hold glob characters.
func (y *YtDLP) files(base string) []string {
	entries, err := os.ReadDir(y.dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), base+".") {
			out = append(out, filepath.Join(y.dir, e.Name()))
		}
	}
	return out
}

func (y *YtDLP) cleanup(base string) {
	utils.CleanupTempFiles(y.files(base)...)
}
