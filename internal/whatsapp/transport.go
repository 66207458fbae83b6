package whatsapp

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/go-faster/errors"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"github.com/pavelc4/aether-fetch/internal/chat"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// quoteLimit bounds how many inbound messages are remembered for replies.
const quoteLimit = 512

// Transport implements chat.Transport for a whatsmeow client. WhatsApp
// cannot send by reference, so URL attachments are fetched here first.
type Transport struct {
	client   *whatsmeow.Client
	http     *http.Client
	maxBytes int64
	quotes   *quoteCache
}

func NewTransport(client *whatsmeow.Client, httpClient *http.Client, maxBytes int64) *Transport {
	return &Transport{
		client:   client,
		http:     httpClient,
		maxBytes: maxBytes,
		quotes:   newQuoteCache(quoteLimit),
	}
}

func (t *Transport) SendText(ctx context.Context, chatID, replyTo, text string) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return errors.Wrapf(err, "chat %q", chatID)
	}
	if _, err := t.client.SendMessage(ctx, jid, textMessage(text, t.quotes.Context(replyTo))); err != nil {
		return errors.Wrap(err, "send message")
	}
	return nil
}

func (t *Transport) SendAttachment(ctx context.Context, chatID, replyTo string, a *chat.Attachment) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return errors.Wrapf(err, "chat %q", chatID)
	}

	data, err := t.content(ctx, a)
	if err != nil {
		return err
	}

	up, err := t.client.Upload(ctx, data, mediaType(a.Kind))
	if err != nil {
		return errors.Wrap(err, "upload")
	}

	msg := mediaMessage(up, a, t.quotes.Context(replyTo))
	if _, err := t.client.SendMessage(ctx, jid, msg); err != nil {
		return errors.Wrapf(err, "send %s", a.Kind)
	}
	logger.Debug("Media sent", "chat", chatID, "kind", a.Kind.String(), "size", len(data))
	return nil
}

func (t *Transport) content(ctx context.Context, a *chat.Attachment) ([]byte, error) {
	switch {
	case len(a.Data) > 0:
		return a.Data, nil
	case a.Path != "":
		data, err := os.ReadFile(a.Path)
		if err != nil {
			return nil, errors.Wrap(err, "read attachment")
		}
		return data, nil
	case a.URL != "":
		return httpx.GetBody(ctx, t.http, a.URL, t.maxBytes)
	default:
		return nil, errors.New("attachment has no content")
	}
}

func (t *Transport) React(ctx context.Context, chatID, messageID, senderID, emoji string) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return errors.Wrapf(err, "chat %q", chatID)
	}
	sender, err := types.ParseJID(senderID)
	if err != nil {
		return errors.Wrapf(err, "sender %q", senderID)
	}

	msg := t.client.BuildReaction(jid, sender, types.MessageID(messageID), emoji)
	if _, err := t.client.SendMessage(ctx, jid, msg); err != nil {
		return errors.Wrap(err, "send reaction")
	}
	return nil
}

// Remember keeps what a later reply needs to quote an inbound message.
func (t *Transport) Remember(id string, sender types.JID, msg *waProto.Message) {
	t.quotes.Put(id, sender, msg)
}

type quoted struct {
	sender types.JID
	msg    *waProto.Message
}

// quoteCache is a small FIFO of recent inbound messages.
type quoteCache struct {
	mu    sync.Mutex
	limit int
	order []string
	items map[string]quoted
}

func newQuoteCache(limit int) *quoteCache {
	return &quoteCache{limit: limit, items: make(map[string]quoted)}
}

func (c *quoteCache) Put(id string, sender types.JID, msg *waProto.Message) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = quoted{sender: sender, msg: msg}
	for len(c.order) > c.limit {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
}

// Context returns reply info for id, or nil when it is unknown.
func (c *quoteCache) Context(id string) *waProto.ContextInfo {
	if id == "" {
		return nil
	}
	c.mu.Lock()
	q, ok := c.items[id]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return &waProto.ContextInfo{
		StanzaID:      proto.String(id),
		Participant:   proto.String(q.sender.ToNonAD().String()),
		QuotedMessage: q.msg,
	}
}
