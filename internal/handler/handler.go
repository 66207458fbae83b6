package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/pavelc4/aether-fetch/internal/command"
	"github.com/pavelc4/aether-fetch/internal/fetch"
	"github.com/pavelc4/aether-fetch/internal/provider"
	"github.com/pavelc4/aether-fetch/internal/relay"
	"github.com/pavelc4/aether-fetch/internal/stats"
	"github.com/pavelc4/aether-fetch/pkg/logger"
)

const (
	CategoryDownload = "download"
	CategoryMain     = "main"
	CategoryOwner    = "owner"

	// MaxAlbumSize caps how many slideshow pictures one request sends.
	MaxAlbumSize = 10
)

// Deps is everything the plugins share. Build it once at startup.
type Deps struct {
	APK     *provider.Resolver
	TikTok  *provider.Resolver
	YouTube *provider.YouTube
	Fetcher *fetch.Fetcher
	YtDLP   *fetch.YtDLP
	Relay   *relay.Relay
	Stats   *stats.Stats
	// Client expands short links.
	Client *http.Client

	DownloadDir      string
	MaxVideoDuration time.Duration
	OwnerID          string
}

// Register adds every plugin to reg.
func Register(reg *command.Registry, d Deps) error {
	dl := NewDownloadHandler(d)
	basic := NewBasicHandler(reg)
	admin := NewAdminHandler(d.Stats, d.OwnerID)

	cmds := []command.Command{
		{
			Name:        "apk",
			Aliases:     []string{"modapk", "apkdownload"},
			Description: "Download an Android app by name or direct .apk link",
			Category:    CategoryDownload,
			Usage:       "<app name | apk url>",
			React:       "📦",
			Handler:     dl.HandleAPK,
		},
		{
			Name:        "tt",
			Aliases:     []string{"tiktok"},
			Description: "Download a TikTok video without watermark",
			Category:    CategoryDownload,
			Usage:       "<tiktok url>",
			React:       "🎥",
			Handler:     dl.HandleTikTok,
		},
		{
			Name:        "yt",
			Aliases:     []string{"ytdl", "ytdl2"},
			Description: "Download a YouTube video or its audio",
			Category:    CategoryDownload,
			Usage:       "<url> [360|720|1080|audio]",
			React:       "⬇️",
			Handler:     dl.HandleYouTube,
		},
		{
			Name:        "video",
			Aliases:     []string{"song"},
			Description: "Search YouTube and send the first hit (song sends audio)",
			Category:    CategoryDownload,
			Usage:       "<name | youtube url>",
			React:       "🎶",
			Handler:     dl.HandleSearch,
		},
		{
			Name:        "menu",
			Aliases:     []string{"help", "list"},
			Description: "Show available commands",
			Category:    CategoryMain,
			React:       "📜",
			Handler:     basic.HandleMenu,
		},
		{
			Name:        "ping",
			Description: "Check the bot is alive",
			Category:    CategoryMain,
			Handler:     basic.HandlePing,
		},
		{
			Name:        "stats",
			Description: "Host and download statistics",
			Category:    CategoryOwner,
			Handler:     admin.HandleStats,
		},
	}

	for _, c := range cmds {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	logger.Info("Commands registered", "count", reg.Len())
	return nil
}

// finish reacts with the outcome and records it. err is passed through so
// the dispatcher can answer it.
func finish(ctx context.Context, inv *command.Invocation, st *stats.Stats, source string, size int64, err error) error {
	emoji := "✅"
	if err != nil {
		emoji = "❌"
	}
	if rerr := inv.React(ctx, emoji); rerr != nil {
		logger.Debug("React failed", "error", rerr)
	}
	if st != nil {
		st.Record(inv.Sender, source, size, err == nil)
	}
	return err
}

// notify sends progress text. Failures only get logged.
func notify(ctx context.Context, inv *command.Invocation, text string) {
	if err := inv.Reply(ctx, text); err != nil {
		logger.Warn("Progress message failed", "chat", inv.Chat, "error", err)
	}
}
