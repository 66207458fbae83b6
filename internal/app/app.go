package app

import (
	"context"
	"net/http"
	"os"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pavelc4/aether-fetch/config"
	"github.com/pavelc4/aether-fetch/internal/chat"
	"github.com/pavelc4/aether-fetch/internal/command"
	"github.com/pavelc4/aether-fetch/internal/fetch"
	"github.com/pavelc4/aether-fetch/internal/handler"
	"github.com/pavelc4/aether-fetch/internal/provider"
	"github.com/pavelc4/aether-fetch/internal/relay"
	"github.com/pavelc4/aether-fetch/internal/stats"
	"github.com/pavelc4/aether-fetch/internal/telegram"
	"github.com/pavelc4/aether-fetch/internal/whatsapp"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
	"github.com/pavelc4/aether-fetch/pkg/logger"
	"github.com/pavelc4/aether-fetch/pkg/utils"
)

// Bot is a chat connection that delivers inbound messages to a handler.
type Bot interface {
	Transport() chat.Transport
	Run(ctx context.Context, h chat.Handler) error
}

type App struct {
	Cfg        *config.Config
	Bot        Bot
	Registry   *command.Registry
	Dispatcher *command.Dispatcher
}

func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	logger.SetLevel(cfg.LogLevel)

	for _, dir := range []string{cfg.DownloadDir, cfg.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", dir)
		}
	}

	// API lookups are bounded by the client; file transfers only by context.
	apiClient := httpx.NewClient(config.UserAgent, httpx.DefaultTimeout)
	fileClient := httpx.NewClient(config.UserAgent, 0)

	bot, err := newBot(cfg, fileClient)
	if err != nil {
		return nil, err
	}

	deps := NewDeps(cfg, apiClient, fileClient)
	reg := command.NewRegistry()
	if err := handler.Register(reg, deps); err != nil {
		return nil, errors.Wrap(err, "register commands")
	}

	dispatcher := command.NewDispatcher(reg, bot.Transport(), cfg.Prefix)
	dispatcher.Timeout = config.StreamTimeout + config.SearchTimeout
	dispatcher.ErrorText = relay.UserMessage

	logger.Info("Application initialized",
		"transport", cfg.Transport,
		"prefix", cfg.Prefix,
		"apk_strategies", deps.APK.Strategies(),
		"tiktok_strategies", deps.TikTok.Strategies(),
	)
	return &App{Cfg: cfg, Bot: bot, Registry: reg, Dispatcher: dispatcher}, nil
}

// NewDeps wires the resolvers, fetchers and relay shared by all commands.
func NewDeps(cfg *config.Config, apiClient, fileClient *http.Client) handler.Deps {
	apk := provider.NewResolver(".apk",
		provider.APKPure(apiClient),
		provider.APKCombo(apiClient),
		provider.NewNexOracle(apiClient, cfg.NexOracleAPI, cfg.NexOracleKey),
	)
	tiktok := provider.NewResolver("",
		provider.NewTikTok(apiClient),
		provider.NewCobalt(apiClient, cfg.CobaltAPI, cfg.CobaltAPIKey),
	)
	observe := func(strategy string, err error) {
		if err != nil {
			logger.Debug("Strategy failed", "strategy", strategy, "error", err)
		}
	}
	apk.Observer = observe
	tiktok.Observer = observe

	youtube := provider.NewYouTube(&provider.ExecRunner{Path: cfg.YtdlpPath, Cookies: cfg.YtdlpCookies})

	return handler.Deps{
		APK:              apk,
		TikTok:           tiktok,
		YouTube:          youtube,
		Fetcher:          fetch.New(fileClient, cfg.MaxDownloadBytes),
		YtDLP:            fetch.NewYtDLP(youtube.Runner(), cfg.TempDir, cfg.MaxDownloadBytes),
		Relay:            relay.New(cfg.TempDir, config.TempFileTTL),
		Stats:            stats.New(),
		Client:           apiClient,
		DownloadDir:      cfg.DownloadDir,
		MaxVideoDuration: cfg.MaxVideoDuration,
		OwnerID:          cfg.OwnerID,
	}
}

func newBot(cfg *config.Config, client *http.Client) (Bot, error) {
	switch cfg.Transport {
	case config.TransportTelegram:
		return telegram.New(cfg)
	case config.TransportWhatsApp:
		return whatsapp.New(cfg, client)
	default:
		return nil, errors.Errorf("unknown transport %q", cfg.Transport)
	}
}

// Start runs the bot and the temp file janitors until ctx is done.
func (a *App) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Bot.Run(ctx, a.Dispatcher)
	})
	for _, dir := range []string{a.Cfg.TempDir, a.Cfg.DownloadDir} {
		g.Go(func() error {
			return utils.RunJanitor(ctx, dir, config.JanitorInterval, config.JanitorMaxAge)
		})
	}

	return g.Wait()
}
