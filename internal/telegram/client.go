package telegram

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	"github.com/pavelc4/aether-fetch/config"
	"github.com/pavelc4/aether-fetch/pkg/logger"
)

type Client struct {
	client *telegram.Client
	api    *tg.Client
	me     *tg.User
}

func NewClient(cfg *config.Config, handler telegram.UpdateHandler) (*Client, error) {
	if err := os.MkdirAll(cfg.SessionDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create session dir")
	}

	opts := telegram.Options{
		Logger:         logger.Zap("gotd"),
		SessionStorage: &session.FileStorage{Path: filepath.Join(cfg.SessionDir, "session.json")},
		UpdateHandler:  handler,
		Middlewares: []telegram.Middleware{
			floodwait.NewSimpleWaiter().WithMaxRetries(5),
		},
	}

	client := telegram.NewClient(cfg.AppID, cfg.AppHash, opts)
	return &Client{
		client: client,
		api:    client.API(),
	}, nil
}

// Start logs in as a bot and blocks until ctx is done. ready runs once the
// session is authorized.
func (c *Client) Start(ctx context.Context, botToken string, ready func(me *tg.User)) error {
	return c.client.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return errors.Wrap(err, "auth status")
		}

		if !status.Authorized {
			if _, err := c.client.Auth().Bot(ctx, botToken); err != nil {
				return errors.Wrap(err, "bot login")
			}
		}

		me, err := c.client.Self(ctx)
		if err != nil {
			return errors.Wrap(err, "get self")
		}
		c.me = me

		logger.Info("Telegram client connected", "username", me.Username, "id", me.ID)
		if ready != nil {
			ready(me)
		}

		<-ctx.Done()
		return nil
	})
}

func (c *Client) API() *tg.Client {
	return c.api
}

func (c *Client) Me() *tg.User {
	return c.me
}
