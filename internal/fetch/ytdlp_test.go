package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writingRunner fakes yt-dlp by creating the file named by -o.
type writingRunner struct {
	ext   string
	size  int
	fails int
	calls int
	args  []string

	// skip writes nothing and exits cleanly, as yt-dlp does for files
	// over --max-filesize.
	skip bool
	// broken writes the file and still fails.
	broken bool
}

func (r *writingRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	r.calls++
	r.args = args
	if r.calls <= r.fails {
		return nil, errors.New("connection reset")
	}
	if r.skip {
		return nil, nil
	}
	for i, a := range args {
		if a == "-o" {
			path := strings.Replace(args[i+1], "%(ext)s", r.ext, 1)
			if err := os.WriteFile(path, make([]byte, r.size), 0o644); err != nil {
				return nil, err
			}
			if r.broken {
				return nil, errors.New("postprocessing failed")
			}
			return nil, nil
		}
	}
	return nil, errors.New("no -o")
}

func TestParseQuality(t *testing.T) {
	assert.Equal(t, "360", ParseQuality("360"))
	assert.Equal(t, "1080", ParseQuality("1080p"))
	assert.Equal(t, QualityAudio, ParseQuality("MP3"))
	assert.Equal(t, QualityAudio, ParseQuality("audio"))
	assert.Equal(t, DefaultQuality, ParseQuality(""))
	assert.Equal(t, DefaultQuality, ParseQuality("4k"))
}

func TestYtDLPVideo(t *testing.T) {
	dir := t.TempDir()
	runner := &writingRunner{ext: "mp4", size: 1234, fails: 1}
	y := NewYtDLP(runner, dir, 1<<20)
	y.Policy = Policy{Retries: 2, Delay: time.Millisecond}

	a, err := y.Download(context.Background(), "https://youtu.be/x", "My: Video", "720")

	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
	assert.True(t, a.Temp)
	assert.Equal(t, int64(1234), a.Size)
	assert.Equal(t, "My_ Video.mp4", a.FileName)
	assert.Equal(t, "video/mp4", a.MimeType)
	assert.True(t, strings.HasPrefix(filepath.Base(a.Path), "aether-ytdlp-My__Video_"))
	assert.Contains(t, strings.Join(runner.args, " "), "bestvideo[height<=720][ext=mp4]")
	assert.Contains(t, runner.args, "--merge-output-format")
}

func TestYtDLPAudio(t *testing.T) {
	runner := &writingRunner{ext: "mp3", size: 10}
	a, err := NewYtDLP(runner, t.TempDir(), 0).Download(context.Background(), "u", "Song", QualityAudio)

	require.NoError(t, err)
	assert.Equal(t, "Song.mp3", a.FileName)
	assert.Equal(t, "audio/mpeg", a.MimeType)
	assert.Contains(t, runner.args, "-x")
	assert.NotContains(t, runner.args, "--max-filesize")
}

func TestYtDLPTooLarge(t *testing.T) {
	dir := t.TempDir()
	runner := &writingRunner{ext: "mp4", size: 2048}

	_, err := NewYtDLP(runner, dir, 1024).Download(context.Background(), "u", "t", "360")

	assert.True(t, errors.Is(err, ErrTooLarge))
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestYtDLPTitleWithBrackets(t *testing.T) {
	dir := t.TempDir()
	runner := &writingRunner{ext: "mp4", size: 64}

	a, err := NewYtDLP(runner, dir, 1<<20).Download(context.Background(), "u", "Song [Official Video]", "720")

	require.NoError(t, err)
	assert.Equal(t, "Song [Official Video].mp4", a.FileName)
	assert.Equal(t, int64(64), a.Size)
	assert.FileExists(t, a.Path)
}

func TestYtDLPCleansUpBracketTitleOnFailure(t *testing.T) {
	dir := t.TempDir()
	runner := &writingRunner{ext: "mp4", size: 64, broken: true}
	y := NewYtDLP(runner, dir, 0)
	y.Policy = Policy{Retries: 0, Delay: time.Millisecond}

	_, err := y.Download(context.Background(), "u", "Live [4K] {remaster}", "720")

	require.Error(t, err)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestYtDLPSkippedBySizeLimit(t *testing.T) {
	_, err := NewYtDLP(&writingRunner{skip: true}, t.TempDir(), 1024).Download(context.Background(), "u", "t", "720")
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = NewYtDLP(&writingRunner{skip: true}, t.TempDir(), 0).Download(context.Background(), "u", "t", "720")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTooLarge))
}
