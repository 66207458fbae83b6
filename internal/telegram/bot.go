package telegram

import (
	"context"
	"strconv"
	"time"

	"github.com/gotd/td/tg"

	"github.com/pavelc4/aether-fetch/config"
	"github.com/pavelc4/aether-fetch/internal/chat"
	"github.com/pavelc4/aether-fetch/pkg/logger"
	"github.com/pavelc4/aether-fetch/pkg/worker"
)

const (
	workerPoolSize = 32
	// Updates replayed after a restart are skipped past this age.
	maxMessageAge = 5 * time.Minute
)

type Bot struct {
	client    *Client
	transport *Transport
	token     string

	handler chat.Handler
	pool    *worker.Pool
}

func New(cfg *config.Config) (*Bot, error) {
	dispatcher := tg.NewUpdateDispatcher()

	client, err := NewClient(cfg, dispatcher)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		client:    client,
		transport: NewTransport(client.API()),
		token:     cfg.BotToken,
	}

	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		b.onMessage(e, u.Message)
		return nil
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		b.onMessage(e, u.Message)
		return nil
	})
	return b, nil
}

func (b *Bot) Transport() chat.Transport {
	return b.transport
}

// Run connects and feeds incoming messages to h until ctx is done, then
// waits for running commands.
func (b *Bot) Run(ctx context.Context, h chat.Handler) error {
	b.handler = h
	b.pool = worker.NewPool(ctx, workerPoolSize)
	err := b.client.Start(ctx, b.token, func(me *tg.User) {
		logger.Info("Bot is online", "username", me.Username)
	})
	b.pool.Stop()
	return err
}

func (b *Bot) onMessage(e tg.Entities, m tg.MessageClass) {
	msg, ok := m.(*tg.Message)
	if !ok || msg.Out || b.pool == nil {
		return
	}
	if time.Since(time.Unix(int64(msg.Date), 0)) > maxMessageAge {
		logger.Debug("Ignoring old message", "id", msg.ID)
		return
	}

	key := ChatKey(msg.PeerID)
	peer, err := resolvePeer(msg.PeerID, e)
	if err != nil {
		logger.Warn("Failed to resolve peer", "chat", key, "error", err)
		return
	}
	b.transport.Remember(key, peer)

	in := inbound(msg, key)

	b.pool.Submit(func(ctx context.Context) {
		b.handler.Dispatch(ctx, in)
	})
}

func inbound(msg *tg.Message, chatKey string) chat.Inbound {
	in := chat.Inbound{
		ChatID:    chatKey,
		MessageID: strconv.Itoa(msg.ID),
		Text:      msg.Message,
		FromMe:    msg.Out,
	}

	from, ok := msg.GetFromID()
	if !ok {
		from = msg.PeerID
	}
	if u, ok := from.(*tg.PeerUser); ok {
		in.SenderID = strconv.FormatInt(u.UserID, 10)
	}
	return in
}
