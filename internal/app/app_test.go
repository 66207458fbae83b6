package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelc4/aether-fetch/config"
	"github.com/pavelc4/aether-fetch/internal/command"
	"github.com/pavelc4/aether-fetch/internal/handler"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
)

func TestNewDepsStrategyOrder(t *testing.T) {
	cfg := &config.Config{
		TempDir:          t.TempDir(),
		DownloadDir:      t.TempDir(),
		CobaltAPI:        "http://cobalt:9000",
		YtdlpPath:        "yt-dlp",
		MaxDownloadBytes: 1 << 20,
		MaxVideoDuration: time.Hour,
	}
	client := httpx.NewClient("test-agent", time.Second)

	deps := NewDeps(cfg, client, client)

	assert.Equal(t, []string{"apkpure", "apkcombo", "nexoracle"}, deps.APK.Strategies())
	assert.Equal(t, []string{"tikwm", "cobalt"}, deps.TikTok.Strategies())
	assert.Equal(t, cfg.DownloadDir, deps.DownloadDir)
	assert.Equal(t, int64(1<<20), deps.Fetcher.MaxBytes())
}

func TestCommandsRegisterOnce(t *testing.T) {
	cfg := &config.Config{TempDir: t.TempDir(), MaxDownloadBytes: 1}
	client := httpx.NewClient("test-agent", time.Second)

	reg := command.NewRegistry()
	require.NoError(t, handler.Register(reg, NewDeps(cfg, client, client)))

	for _, name := range []string{"apk", "modapk", "apkdownload", "tt", "tiktok", "yt", "ytdl", "ytdl2", "video", "song", "menu", "help", "ping", "stats"} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, name)
	}
	assert.Error(t, handler.Register(reg, NewDeps(cfg, client, client)))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(&config.Config{Transport: "irc", Prefix: "."})
	assert.Error(t, err)
}
