package whatsapp

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/pavelc4/aether-fetch/config"
	"github.com/pavelc4/aether-fetch/internal/chat"
	"github.com/pavelc4/aether-fetch/pkg/logger"
	"github.com/pavelc4/aether-fetch/pkg/worker"
)

const (
	workerPoolSize = 32
	maxMessageAge  = 5 * time.Minute
)

type Bot struct {
	client    *whatsmeow.Client
	transport *Transport

	handler chat.Handler
	pool    *worker.Pool
}

// New opens the device store. The first device is used; a fresh store
// asks for a QR login on Run.
func New(cfg *config.Config, httpClient *http.Client) (*Bot, error) {
	container, err := sqlstore.New("sqlite3", cfg.WhatsAppDB, NewLogger("database"))
	if err != nil {
		return nil, errors.Wrap(err, "open device store")
	}
	device, err := container.GetFirstDevice()
	if err != nil {
		return nil, errors.Wrap(err, "load device")
	}

	client := whatsmeow.NewClient(device, NewLogger("client"))
	return &Bot{
		client:    client,
		transport: NewTransport(client, httpClient, cfg.MaxDownloadBytes),
	}, nil
}

func (b *Bot) Transport() chat.Transport {
	return b.transport
}

// Run connects, logging in by QR code when needed, and feeds messages to h
// until ctx is done.
func (b *Bot) Run(ctx context.Context, h chat.Handler) error {
	b.handler = h
	b.pool = worker.NewPool(ctx, workerPoolSize)
	defer b.pool.Stop()
	b.client.AddEventHandler(b.onEvent)

	if b.client.Store.ID == nil {
		qrChan, err := b.client.GetQRChannel(ctx)
		if err != nil {
			return errors.Wrap(err, "qr channel")
		}
		if err := b.client.Connect(); err != nil {
			return errors.Wrap(err, "connect")
		}
		for evt := range qrChan {
			if evt.Event == "code" {
				logger.Info("Scan the QR code with WhatsApp to log in")
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			} else {
				logger.Info("Login event", "event", evt.Event)
			}
		}
	} else if err := b.client.Connect(); err != nil {
		return errors.Wrap(err, "connect")
	}

	<-ctx.Done()
	b.client.Disconnect()
	return nil
}

func (b *Bot) onEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		b.onMessage(v)
	case *events.Connected:
		logger.Info("WhatsApp client connected", "jid", b.client.Store.ID)
	case *events.Disconnected:
		logger.Warn("WhatsApp client disconnected")
	case *events.LoggedOut:
		logger.Error("WhatsApp session logged out", "reason", v.Reason)
	}
}

func (b *Bot) onMessage(v *events.Message) {
	if v.Info.IsFromMe || b.pool == nil {
		return
	}
	if !v.Info.Timestamp.IsZero() && time.Since(v.Info.Timestamp) > maxMessageAge {
		logger.Debug("Ignoring old message", "id", v.Info.ID)
		return
	}

	in := inbound(v)
	if in.Text == "" {
		return
	}
	b.transport.Remember(v.Info.ID, v.Info.Sender, v.Message)

	b.pool.Submit(func(ctx context.Context) {
		b.handler.Dispatch(ctx, in)
	})
}

func inbound(v *events.Message) chat.Inbound {
	return chat.Inbound{
		ChatID:    v.Info.Chat.String(),
		SenderID:  v.Info.Sender.ToNonAD().String(),
		MessageID: v.Info.ID,
		Text:      MessageText(v.Message),
		FromMe:    v.Info.IsFromMe,
	}
}
